// Package store persists feeds, articles, and reader preferences in SQLite.
//
// The articles table carries UNIQUE(feed_id, dedup_key); InsertArticleIfAbsent
// relies on it so concurrent ingestion of the same entry inserts exactly one
// row and reports the loser as a no-op. Feed health counters, the preference
// singleton, and the maintenance operations (prune, hidden-flag recompute,
// re-scoring) live here as well.
//
// Timestamps are stored as fixed-width UTC strings so SQL comparisons sort
// chronologically.
package store
