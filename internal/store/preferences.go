package store

import (
	"context"
	"fmt"
)

// GetPreferences reads the preference singleton.
func (s *Store) GetPreferences(ctx context.Context) (Preferences, error) {
	var (
		prefs        Preferences
		interestsRaw string
		excludesRaw  string
		updatedRaw   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT interests_json, excludes_json, min_relevance_score, prune_after_days, updated_at
         FROM preferences WHERE id = 1`,
	).Scan(&interestsRaw, &excludesRaw, &prefs.MinRelevanceScore, &prefs.PruneAfterDays, &updatedRaw)
	if err != nil {
		return Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	prefs.Interests = decodeList(interestsRaw)
	prefs.Excludes = decodeList(excludesRaw)
	if t, err := parseTimeString(updatedRaw); err == nil {
		prefs.UpdatedAt = t
	}
	return prefs, nil
}

// UpdatePreferences replaces the preference singleton and returns the stored value.
func (s *Store) UpdatePreferences(ctx context.Context, prefs Preferences) (Preferences, error) {
	if prefs.MinRelevanceScore < 0 || prefs.MinRelevanceScore > 10 {
		return Preferences{}, fmt.Errorf("%w: min relevance score %d outside [0,10]", ErrInvalid, prefs.MinRelevanceScore)
	}
	if prefs.PruneAfterDays < 1 || prefs.PruneAfterDays > 365 {
		return Preferences{}, fmt.Errorf("%w: prune after days %d outside [1,365]", ErrInvalid, prefs.PruneAfterDays)
	}
	interests, err := encodeList(prefs.Interests)
	if err != nil {
		return Preferences{}, err
	}
	excludes, err := encodeList(prefs.Excludes)
	if err != nil {
		return Preferences{}, err
	}
	if _, err := s.execWithRetry(ctx,
		`UPDATE preferences
         SET interests_json = ?, excludes_json = ?, min_relevance_score = ?, prune_after_days = ?, updated_at = ?
         WHERE id = 1`,
		interests, excludes, prefs.MinRelevanceScore, prefs.PruneAfterDays, formatTime(now()),
	); err != nil {
		return Preferences{}, fmt.Errorf("update preferences: %w", err)
	}
	return s.GetPreferences(ctx)
}
