// Package services defines shared utilities consumed by the ingestion pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp cycle IDs, feed IDs, pipeline phases, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper. IsFatal separates
//     storage failures, which abort a cycle, from per-feed and per-article
//     failures that are recorded and skipped.
//
// Subpackages hold the HTTP clients for the local model server.
package services
