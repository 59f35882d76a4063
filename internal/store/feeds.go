package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const feedColumns = "id, url, name, enabled, last_fetched_at, error_count, last_error, created_at, updated_at"

func scanFeed(scanner interface{ Scan(dest ...any) error }) (*Feed, error) {
	var (
		feed        Feed
		enabled     int
		lastFetched sql.NullString
		lastError   sql.NullString
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(
		&feed.ID,
		&feed.URL,
		&feed.Name,
		&enabled,
		&lastFetched,
		&feed.ErrorCount,
		&lastError,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	feed.Enabled = enabled != 0
	feed.LastFetchedAt = parseNullableTime(lastFetched)
	feed.LastError = lastError.String
	if t, err := parseTimeString(createdRaw); err == nil {
		feed.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw); err == nil {
		feed.UpdatedAt = t
	}
	return &feed, nil
}

// CreateFeed registers a feed URL. The name defaults to the URL.
func (s *Store) CreateFeed(ctx context.Context, url, name string, enabled bool) (*Feed, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: feed url is required", ErrInvalid)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = url
	}
	timestamp := formatTime(now())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO feeds (url, name, enabled, error_count, created_at, updated_at)
         VALUES (?, ?, ?, 0, ?, ?)`,
		url, name, boolToInt(enabled), timestamp, timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrFeedExists, url)
		}
		return nil, fmt.Errorf("insert feed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetFeed(ctx, id)
}

// GetFeed fetches a feed by identifier. It returns ErrNotFound when absent.
func (s *Store) GetFeed(ctx context.Context, id int64) (*Feed, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id)
	feed, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	return feed, nil
}

// ListFeeds returns feeds ordered by name. With enabledOnly set, disabled
// feeds are left out.
func (s *Store) ListFeeds(ctx context.Context, enabledOnly bool) ([]*Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE, id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

// FeedUpdate carries optional feed edits; nil fields are left unchanged.
type FeedUpdate struct {
	Name    *string
	Enabled *bool
}

// UpdateFeed applies a partial edit and returns the updated feed.
func (s *Store) UpdateFeed(ctx context.Context, id int64, update FeedUpdate) (*Feed, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(now())}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: feed name must not be empty", ErrInvalid)
		}
		sets = append(sets, "name = ?")
		args = append(args, name)
	}
	if update.Enabled != nil {
		sets = append(sets, "enabled = ?")
		args = append(args, boolToInt(*update.Enabled))
	}
	args = append(args, id)
	res, err := s.execWithRetry(ctx, `UPDATE feeds SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update feed: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return nil, err
	}
	return s.GetFeed(ctx, id)
}

// DeleteFeed removes a feed. With cascade set its articles are deleted in the
// same transaction; otherwise they survive with a NULL feed reference. It
// returns the number of articles deleted.
func (s *Store) DeleteFeed(ctx context.Context, id int64, cascade bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete feed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var removed int64
	if cascade {
		res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE feed_id = ?`, id)
		if err != nil {
			return 0, fmt.Errorf("delete feed articles: %w", err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete feed: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete feed: %w", err)
	}
	return removed, nil
}

// RecordFeedSuccess resets the error counter after a successful fetch.
func (s *Store) RecordFeedSuccess(ctx context.Context, id int64) error {
	timestamp := formatTime(now())
	res, err := s.execWithRetry(ctx,
		`UPDATE feeds SET error_count = 0, last_error = NULL, last_fetched_at = ?, updated_at = ? WHERE id = ?`,
		timestamp, timestamp, id,
	)
	if err != nil {
		return fmt.Errorf("record feed success: %w", err)
	}
	return affectedOrNotFound(res)
}

// RecordFeedFailure increments the consecutive error counter and stores the message.
func (s *Store) RecordFeedFailure(ctx context.Context, id int64, message string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE feeds SET error_count = error_count + 1, last_error = ?, updated_at = ? WHERE id = ?`,
		nullableString(strings.TrimSpace(message)), formatTime(now()), id,
	)
	if err != nil {
		return fmt.Errorf("record feed failure: %w", err)
	}
	return affectedOrNotFound(res)
}
