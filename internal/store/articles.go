package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultArticleLimit = 100
	maxArticleLimit     = 1000
)

const articleColumns = `a.id, a.feed_id, COALESCE(f.name, ''), a.dedup_key, a.url, a.guid, a.title, a.content,
    a.published_at, a.ingested_at, a.relevance_score, a.tags_json, a.quality, a.summary,
    a.degraded, a.is_read, a.is_starred, a.is_hidden`

func scanArticle(scanner interface{ Scan(dest ...any) error }) (*Article, error) {
	var (
		article      Article
		feedID       sql.NullInt64
		url          sql.NullString
		guid         sql.NullString
		publishedRaw string
		ingestedRaw  string
		tagsRaw      string
		degraded     int
		isRead       int
		isStarred    int
		isHidden     int
	)
	if err := scanner.Scan(
		&article.ID,
		&feedID,
		&article.FeedName,
		&article.DedupKey,
		&url,
		&guid,
		&article.Title,
		&article.Content,
		&publishedRaw,
		&ingestedRaw,
		&article.Score,
		&tagsRaw,
		&article.Quality,
		&article.Summary,
		&degraded,
		&isRead,
		&isStarred,
		&isHidden,
	); err != nil {
		return nil, err
	}
	article.FeedID = feedID.Int64
	article.URL = url.String
	article.GUID = guid.String
	article.Tags = decodeList(tagsRaw)
	article.Degraded = degraded != 0
	article.IsRead = isRead != 0
	article.IsStarred = isStarred != 0
	article.Hidden = isHidden != 0
	if t, err := parseTimeString(publishedRaw); err == nil {
		article.PublishedAt = t
	}
	if t, err := parseTimeString(ingestedRaw); err == nil {
		article.IngestedAt = t
	}
	return &article, nil
}

// ArticleExists reports whether a dedup key is already stored for the feed.
func (s *Store) ArticleExists(ctx context.Context, feedID int64, dedupKey string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE feed_id = ? AND dedup_key = ?)`,
		feedID, dedupKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("article exists: %w", err)
	}
	return exists != 0, nil
}

// InsertArticleIfAbsent stores the article unless its (feed, dedup key) pair
// already exists. A conflict returns inserted=false and a nil error.
func (s *Store) InsertArticleIfAbsent(ctx context.Context, article NewArticle) (int64, bool, error) {
	if strings.TrimSpace(article.DedupKey) == "" {
		return 0, false, errors.New("insert article: dedup key is required")
	}
	if err := validateAssessment(article.Assessment); err != nil {
		return 0, false, fmt.Errorf("insert article: %w", err)
	}
	tags, err := encodeList(article.Tags)
	if err != nil {
		return 0, false, err
	}
	ingested := now()
	published := article.PublishedAt
	if published.IsZero() {
		published = ingested
	}
	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = "No Title"
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO articles (
            feed_id, dedup_key, url, guid, title, content, published_at, ingested_at,
            relevance_score, tags_json, quality, summary, degraded, is_hidden
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (feed_id, dedup_key) DO NOTHING`,
		article.FeedID,
		article.DedupKey,
		nullableString(article.URL),
		nullableString(article.GUID),
		title,
		article.Content,
		formatTime(published),
		formatTime(ingested),
		article.Score,
		tags,
		article.Quality,
		article.Summary,
		boolToInt(article.Degraded),
		boolToInt(article.Hidden),
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("insert article: rows affected: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("last insert id: %w", err)
	}
	return id, true, nil
}

func validateAssessment(a Assessment) error {
	if a.Score < 0 || a.Score > 10 {
		return fmt.Errorf("%w: score %d outside [0,10]", ErrInvalid, a.Score)
	}
	switch a.Quality {
	case QualityLow, QualityMedium, QualityHigh:
		return nil
	default:
		return fmt.Errorf("%w: unknown quality %q", ErrInvalid, a.Quality)
	}
}

// GetArticle fetches one article by identifier.
func (s *Store) GetArticle(ctx context.Context, id int64) (*Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles a LEFT JOIN feeds f ON f.id = a.feed_id WHERE a.id = ?`, id)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

// ListArticles returns articles newest first.
func (s *Store) ListArticles(ctx context.Context, filter ArticleFilter) ([]*Article, error) {
	var (
		where []string
		args  []any
	)
	if !filter.ShowAll {
		where = append(where, "a.is_hidden = 0")
	}
	if filter.UnreadOnly {
		where = append(where, "a.is_read = 0")
	}
	if filter.StarredOnly {
		where = append(where, "a.is_starred = 1")
	}
	if filter.FeedID > 0 {
		where = append(where, "a.feed_id = ?")
		args = append(args, filter.FeedID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultArticleLimit
	}
	if limit > maxArticleLimit {
		limit = maxArticleLimit
	}
	offset := max(filter.Offset, 0)

	query := `SELECT ` + articleColumns + ` FROM articles a LEFT JOIN feeds f ON f.id = a.feed_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY a.published_at DESC, a.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// SetRead updates the read flag.
func (s *Store) SetRead(ctx context.Context, id int64, read bool) error {
	res, err := s.execWithRetry(ctx, `UPDATE articles SET is_read = ? WHERE id = ?`, boolToInt(read), id)
	if err != nil {
		return fmt.Errorf("set read: %w", err)
	}
	return affectedOrNotFound(res)
}

// SetStarred updates the starred flag. Starred articles survive pruning.
func (s *Store) SetStarred(ctx context.Context, id int64, starred bool) error {
	res, err := s.execWithRetry(ctx, `UPDATE articles SET is_starred = ? WHERE id = ?`, boolToInt(starred), id)
	if err != nil {
		return fmt.Errorf("set starred: %w", err)
	}
	return affectedOrNotFound(res)
}

// DeleteAllArticles empties the articles table and returns the number removed.
func (s *Store) DeleteAllArticles(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM articles`)
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}
	return res.RowsAffected()
}

// PruneArticles deletes unstarred articles ingested before cutoff.
func (s *Store) PruneArticles(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM articles WHERE is_starred = 0 AND ingested_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune articles: %w", err)
	}
	return res.RowsAffected()
}

// RecomputeHidden re-derives every hidden flag from the given threshold and
// returns how many rows changed.
func (s *Store) RecomputeHidden(ctx context.Context, threshold int) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE articles SET is_hidden = CASE WHEN relevance_score < ? THEN 1 ELSE 0 END
         WHERE is_hidden != CASE WHEN relevance_score < ? THEN 1 ELSE 0 END`,
		threshold, threshold,
	)
	if err != nil {
		return 0, fmt.Errorf("recompute hidden: %w", err)
	}
	return res.RowsAffected()
}

// RescoreTargets lists stored articles to score again, oldest first. A zero
// feedID selects every article.
func (s *Store) RescoreTargets(ctx context.Context, feedID int64) ([]RescoreTarget, error) {
	query := `SELECT id, COALESCE(feed_id, 0), title, content FROM articles`
	var args []any
	if feedID > 0 {
		query += ` WHERE feed_id = ?`
		args = append(args, feedID)
	}
	query += ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rescore targets: %w", err)
	}
	defer rows.Close()

	var targets []RescoreTarget
	for rows.Next() {
		var target RescoreTarget
		if err := rows.Scan(&target.ID, &target.FeedID, &target.Title, &target.Content); err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

// UpdateAssessment overwrites the scored fields of an article.
func (s *Store) UpdateAssessment(ctx context.Context, id int64, assessment Assessment) error {
	if err := validateAssessment(assessment); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	tags, err := encodeList(assessment.Tags)
	if err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE articles SET relevance_score = ?, tags_json = ?, quality = ?, summary = ?, degraded = ?, is_hidden = ?
         WHERE id = ?`,
		assessment.Score, tags, assessment.Quality, assessment.Summary,
		boolToInt(assessment.Degraded), boolToInt(assessment.Hidden), id,
	)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return affectedOrNotFound(res)
}
