// Package dedup derives per-feed deduplication keys for feed entries and
// decides whether an entry has been stored before.
//
// The store's UNIQUE(feed_id, dedup_key) constraint is the authority; the
// Deduplicator only avoids scoring entries that are already known. An
// optional Redis seen-cache short-circuits the store lookup and is purely
// advisory: cache failures fall back to the store.
package dedup
