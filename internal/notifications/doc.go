// Package notifications pushes newsdiet events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers can notify unconditionally. High-relevance alerts are gated by the
// configured minimum score and cycle failure summaries by the
// cycle_failures switch.
package notifications
