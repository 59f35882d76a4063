package ingest

import (
	"time"

	"newsdiet/internal/services"
)

// FeedResult is the outcome of processing one feed in a cycle.
type FeedResult struct {
	FeedID         int64  `json:"feed_id"`
	FeedName       string `json:"feed_name"`
	NewArticles    int    `json:"new_articles"`
	Duplicates     int    `json:"duplicates"`
	Degraded       int    `json:"degraded"`
	SkippedEntries int    `json:"skipped_entries"`
	Err            error  `json:"-"`
	Error          string `json:"error,omitempty"`
	FailureKind    string `json:"failure_kind,omitempty"`
}

// Failed reports whether the feed could not be processed.
func (r FeedResult) Failed() bool {
	return r.Err != nil || r.Error != ""
}

func (r *FeedResult) setErr(err error) {
	r.Err = err
	if err != nil {
		r.Error = err.Error()
		r.FailureKind = services.FailureKind(err)
	}
}

// CycleReport aggregates the results of one ingestion cycle.
type CycleReport struct {
	ID       string       `json:"id"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Feeds    []FeedResult `json:"feeds"`
	Error    string       `json:"error,omitempty"`
}

// Duration returns how long the cycle ran.
func (r CycleReport) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Totals sums the per-feed counters.
func (r CycleReport) Totals() Totals {
	var t Totals
	t.Feeds = len(r.Feeds)
	for _, feed := range r.Feeds {
		t.NewArticles += feed.NewArticles
		t.Duplicates += feed.Duplicates
		t.Degraded += feed.Degraded
		t.SkippedEntries += feed.SkippedEntries
		if feed.Failed() {
			t.FailedFeeds++
		}
	}
	return t
}

// Totals are cycle-wide counters.
type Totals struct {
	Feeds          int `json:"feeds"`
	FailedFeeds    int `json:"failed_feeds"`
	NewArticles    int `json:"new_articles"`
	Duplicates     int `json:"duplicates"`
	Degraded       int `json:"degraded"`
	SkippedEntries int `json:"skipped_entries"`
}

// ReprocessReport summarizes a re-scoring run.
type ReprocessReport struct {
	FeedID   int64     `json:"feed_id,omitempty"`
	Total    int       `json:"total"`
	Rescored int       `json:"rescored"`
	Degraded int       `json:"degraded"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Error    string    `json:"error,omitempty"`
}

// PruneReport summarizes a prune run.
type PruneReport struct {
	Cutoff  time.Time `json:"cutoff"`
	Removed int64     `json:"removed"`
}
