package store

import (
	"context"
	"fmt"
)

// Stats counts feeds and articles by state.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(enabled), 0), COALESCE(SUM(CASE WHEN error_count > 0 THEN 1 ELSE 0 END), 0)
         FROM feeds`,
	).Scan(&stats.Feeds, &stats.EnabledFeeds, &stats.FailingFeeds)
	if err != nil {
		return Stats{}, fmt.Errorf("feed stats: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(is_starred), 0),
                COALESCE(SUM(is_hidden), 0),
                COALESCE(SUM(degraded), 0)
         FROM articles`,
	).Scan(&stats.Articles, &stats.Unread, &stats.Starred, &stats.Hidden, &stats.Degraded)
	if err != nil {
		return Stats{}, fmt.Errorf("article stats: %w", err)
	}
	return stats, nil
}
