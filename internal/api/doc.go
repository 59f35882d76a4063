// Package api defines wire-format types and converters for the HTTP, IPC, and
// CLI layers. It translates store and orchestrator models into
// transport-friendly DTOs so consumers can render them without coupling to
// internal types.
//
// # Key Types
//
// Article, Feed, Preferences: transport representations of stored rows.
//
// DaemonStatus: daemon identity, orchestrator activity, table counts, and the
// schedule of periodic jobs.
//
// Service: the read and edit operations shared by the HTTP handlers and the
// CLI, returning DTOs and errors that StatusCode can classify.
//
// # Design Notes
//
// DTOs use snake_case JSON tags, matching the admin API's request bodies.
// Timestamps are RFC3339 with milliseconds in UTC. Article bodies are only
// included by GetArticle; list responses stay small.
package api
