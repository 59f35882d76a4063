// Package scheduler runs the daemon's periodic jobs on a cron clock.
//
// Three jobs are registered for a daemon: the feed refresh on a fixed
// interval, the daily article prune, and removal of old daemon log files.
// Jobs share one context that is canceled by Stop, never overlap with
// themselves, and recover from panics so one bad run cannot take the
// daemon down.
package scheduler
