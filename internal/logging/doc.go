// Package logging assembles structured slog loggers and formatting helpers used
// across newsdiet.
//
// It owns the console and JSON handlers, maps configured levels, and exposes
// context-aware helpers so pipeline code tags log lines with cycle IDs, feed
// IDs, and phases without threading attributes by hand. The daemon logger tees
// console output into a JSON file per run; RemoveExpiredLogs prunes those files.
//
// NewNop returns a logger for tests and wiring code that cannot fail.
package logging
