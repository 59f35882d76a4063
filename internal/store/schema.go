package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var baseSchema string

// migration upgrades the database by one version inside a transaction.
type migration func(ctx context.Context, tx *sql.Tx) error

// migrations[i] moves a database from user_version i to i+1.
var migrations = []migration{
	createBaseSchema,
}

// ErrSchemaMismatch reports a database written by a newer newsdiet.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// migrate brings the database to len(migrations), tracked in SQLite's
// user_version pragma.
func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("%w: database has version %d, this build knows %d",
			ErrSchemaMismatch, version, len(migrations))
	}
	for next := version; next < len(migrations); next++ {
		if err := s.applyMigration(ctx, next); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, index int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", index+1, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := migrations[index](ctx, tx); err != nil {
		return fmt.Errorf("migration %d: %w", index+1, err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", index+1)); err != nil {
		return fmt.Errorf("migration %d: record version: %w", index+1, err)
	}
	return tx.Commit()
}

// createBaseSchema creates the tables and seeds the preference singleton.
func createBaseSchema(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, baseSchema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	defaults := DefaultPreferences()
	interests, err := encodeList(defaults.Interests)
	if err != nil {
		return err
	}
	excludes, err := encodeList(defaults.Excludes)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO preferences (id, interests_json, excludes_json, min_relevance_score, prune_after_days, updated_at)
         VALUES (1, ?, ?, ?, ?, ?)`,
		interests, excludes, defaults.MinRelevanceScore, defaults.PruneAfterDays, formatTime(now()),
	)
	if err != nil {
		return fmt.Errorf("seed preferences: %w", err)
	}
	return nil
}
