package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"newsdiet/internal/services"
	"newsdiet/internal/store"
)

// Maintainer is the orchestrator surface that enforces policy on edits:
// the feed removal cascade and hidden-flag recomputation.
type Maintainer interface {
	DeleteFeed(ctx context.Context, feedID int64) (int64, error)
	UpdatePreferences(ctx context.Context, prefs store.Preferences) (store.Preferences, error)
}

// Service exposes article, feed, and preference operations returning API
// DTOs.
type Service struct {
	store *store.Store
	ops   Maintainer
}

// NewService constructs a Service around st and ops.
func NewService(st *store.Store, ops Maintainer) *Service {
	return &Service{store: st, ops: ops}
}

// ListArticles returns articles matching query, newest first.
func (s *Service) ListArticles(ctx context.Context, query ArticleQuery) ([]Article, error) {
	if query.Limit < 0 || query.Offset < 0 {
		return nil, services.Wrap(services.ErrValidation, "api", "list articles", "limit and offset must not be negative", nil)
	}
	articles, err := s.store.ListArticles(ctx, query.Filter())
	if err != nil {
		return nil, err
	}
	return FromArticles(articles), nil
}

// GetArticle returns one article including its body.
func (s *Service) GetArticle(ctx context.Context, id int64) (Article, error) {
	article, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return Article{}, err
	}
	dto := FromArticle(article)
	dto.Content = article.Content
	return dto, nil
}

// MarkRead sets the read flag and returns the updated article.
func (s *Service) MarkRead(ctx context.Context, id int64, read bool) (Article, error) {
	if err := s.store.SetRead(ctx, id, read); err != nil {
		return Article{}, err
	}
	return s.summary(ctx, id)
}

// SetStarred sets the starred flag and returns the updated article.
func (s *Service) SetStarred(ctx context.Context, id int64, starred bool) (Article, error) {
	if err := s.store.SetStarred(ctx, id, starred); err != nil {
		return Article{}, err
	}
	return s.summary(ctx, id)
}

func (s *Service) summary(ctx context.Context, id int64) (Article, error) {
	article, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return Article{}, err
	}
	return FromArticle(article), nil
}

// ClearArticles deletes every article, starred ones included.
func (s *Service) ClearArticles(ctx context.Context) (RemovedResponse, error) {
	removed, err := s.store.DeleteAllArticles(ctx)
	if err != nil {
		return RemovedResponse{}, err
	}
	return RemovedResponse{Removed: removed}, nil
}

// ListFeeds returns every registered feed.
func (s *Service) ListFeeds(ctx context.Context) ([]Feed, error) {
	feeds, err := s.store.ListFeeds(ctx, false)
	if err != nil {
		return nil, err
	}
	return FromFeeds(feeds), nil
}

// AddFeed registers a feed after checking its URL. Feeds are enabled unless
// the request says otherwise.
func (s *Service) AddFeed(ctx context.Context, req CreateFeedRequest) (Feed, error) {
	feedURL, err := ValidateFeedURL(req.URL)
	if err != nil {
		return Feed{}, err
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	feed, err := s.store.CreateFeed(ctx, feedURL, req.Name, enabled)
	if err != nil {
		return Feed{}, err
	}
	return FromFeed(feed), nil
}

// UpdateFeed renames or toggles a feed.
func (s *Service) UpdateFeed(ctx context.Context, id int64, req UpdateFeedRequest) (Feed, error) {
	feed, err := s.store.UpdateFeed(ctx, id, store.FeedUpdate{Name: req.Name, Enabled: req.Enabled})
	if err != nil {
		return Feed{}, err
	}
	return FromFeed(feed), nil
}

// RemoveFeed deletes a feed under the configured cascade policy.
func (s *Service) RemoveFeed(ctx context.Context, id int64) (RemovedResponse, error) {
	removed, err := s.ops.DeleteFeed(ctx, id)
	if err != nil {
		return RemovedResponse{}, err
	}
	return RemovedResponse{Removed: removed}, nil
}

// ImportFeeds registers every entry of a parsed feed list. Entries already
// registered or with unusable URLs are reported, not fatal.
func (s *Service) ImportFeeds(ctx context.Context, entries []CreateFeedRequest) (ImportReport, error) {
	report := ImportReport{Added: []Feed{}, Existing: []string{}, Invalid: []string{}}
	for _, entry := range entries {
		feed, err := s.AddFeed(ctx, entry)
		switch {
		case err == nil:
			report.Added = append(report.Added, feed)
		case errors.Is(err, store.ErrFeedExists):
			report.Existing = append(report.Existing, strings.TrimSpace(entry.URL))
		case errors.Is(err, services.ErrValidation), errors.Is(err, store.ErrInvalid):
			report.Invalid = append(report.Invalid, fmt.Sprintf("%s: %v", strings.TrimSpace(entry.URL), err))
		default:
			return report, err
		}
	}
	return report, nil
}

// Preferences returns the stored preferences.
func (s *Service) Preferences(ctx context.Context) (Preferences, error) {
	prefs, err := s.store.GetPreferences(ctx)
	if err != nil {
		return Preferences{}, err
	}
	return FromPreferences(prefs), nil
}

// SetPreferences replaces the stored preferences.
func (s *Service) SetPreferences(ctx context.Context, prefs Preferences) (Preferences, error) {
	updated, err := s.ops.UpdatePreferences(ctx, prefs.ToStore())
	if err != nil {
		return Preferences{}, err
	}
	return FromPreferences(updated), nil
}

// Stats returns table counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return FromStats(stats), nil
}

// ValidateFeedURL trims raw and requires an absolute http or https URL.
func ValidateFeedURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", services.Wrap(services.ErrValidation, "api", "feed url", fmt.Sprintf("%q is not an http(s) URL", raw), nil)
	}
	return raw, nil
}
