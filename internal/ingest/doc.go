// Package ingest runs ingestion cycles: fetch every enabled feed, skip
// entries already stored, score the new ones, and persist them.
//
// The Orchestrator admits one cycle at a time. Concurrent triggers are
// coalesced into the running cycle rather than queued. Feeds are processed
// in parallel up to the fetch limit while model calls share a smaller
// process-wide inference limit. A feed that fails to fetch is recorded
// against that feed only; storage failures are the single cycle-fatal
// condition and surface as *StorageError.
//
// Reprocess re-scores stored articles with the current preferences and shares
// the cycle guard, so it never overlaps ingestion.
package ingest
