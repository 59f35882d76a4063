package api

import (
	"slices"
	"time"

	"newsdiet/internal/store"
)

// FromArticle converts a stored article to its API representation. Content
// is omitted; callers that want the body set it explicitly.
func FromArticle(article *store.Article) Article {
	if article == nil {
		return Article{}
	}
	dto := Article{
		ID:          article.ID,
		FeedID:      article.FeedID,
		FeedName:    article.FeedName,
		Title:       article.Title,
		URL:         article.URL,
		Summary:     article.Summary,
		Score:       article.Score,
		Tags:        slices.Clone(article.Tags),
		Quality:     article.Quality,
		Degraded:    article.Degraded,
		IsHidden:    article.Hidden,
		IsRead:      article.IsRead,
		IsStarred:   article.IsStarred,
		PublishedAt: formatTime(article.PublishedAt),
		IngestedAt:  formatTime(article.IngestedAt),
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	return dto
}

// FromArticles converts a slice of stored articles.
func FromArticles(articles []*store.Article) []Article {
	out := make([]Article, 0, len(articles))
	for _, article := range articles {
		out = append(out, FromArticle(article))
	}
	return out
}

// FromFeed converts a stored feed to its API representation.
func FromFeed(feed *store.Feed) Feed {
	if feed == nil {
		return Feed{}
	}
	dto := Feed{
		ID:         feed.ID,
		URL:        feed.URL,
		Name:       feed.Name,
		Enabled:    feed.Enabled,
		Failing:    feed.Failing(),
		ErrorCount: feed.ErrorCount,
		LastError:  feed.LastError,
		CreatedAt:  formatTime(feed.CreatedAt),
	}
	if feed.LastFetchedAt != nil {
		dto.LastFetchedAt = formatTime(*feed.LastFetchedAt)
	}
	return dto
}

// FromFeeds converts a slice of stored feeds.
func FromFeeds(feeds []*store.Feed) []Feed {
	out := make([]Feed, 0, len(feeds))
	for _, feed := range feeds {
		out = append(out, FromFeed(feed))
	}
	return out
}

// FromPreferences converts the stored preference row.
func FromPreferences(prefs store.Preferences) Preferences {
	dto := Preferences{
		Interests:         slices.Clone(prefs.Interests),
		Excludes:          slices.Clone(prefs.Excludes),
		MinRelevanceScore: prefs.MinRelevanceScore,
		PruneAfterDays:    prefs.PruneAfterDays,
		UpdatedAt:         formatTime(prefs.UpdatedAt),
	}
	if dto.Interests == nil {
		dto.Interests = []string{}
	}
	if dto.Excludes == nil {
		dto.Excludes = []string{}
	}
	return dto
}

// ToStore converts a preferences payload back to the store model.
func (p Preferences) ToStore() store.Preferences {
	return store.Preferences{
		Interests:         slices.Clone(p.Interests),
		Excludes:          slices.Clone(p.Excludes),
		MinRelevanceScore: p.MinRelevanceScore,
		PruneAfterDays:    p.PruneAfterDays,
	}
}

// FromStats converts table counts.
func FromStats(stats store.Stats) Stats {
	return Stats(stats)
}

// Filter converts a query to the store filter.
func (q ArticleQuery) Filter() store.ArticleFilter {
	return store.ArticleFilter{
		ShowAll:     q.ShowAll,
		UnreadOnly:  q.UnreadOnly,
		StarredOnly: q.StarredOnly,
		FeedID:      q.FeedID,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
}

// FormatTime renders t in the API timestamp format. The zero time renders
// as an empty string.
func FormatTime(t time.Time) string {
	return formatTime(t)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
