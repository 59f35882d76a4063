package api

import (
	"newsdiet/internal/ingest"
	"newsdiet/internal/preflight"
	"newsdiet/internal/scheduler"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Article describes a stored article in a transport-friendly format.
type Article struct {
	ID          int64    `json:"id"`
	FeedID      int64    `json:"feed_id,omitempty"`
	FeedName    string   `json:"feed_name,omitempty"`
	Title       string   `json:"title"`
	URL         string   `json:"url,omitempty"`
	Summary     string   `json:"summary"`
	Score       int      `json:"relevance_score"`
	Tags        []string `json:"tags"`
	Quality     string   `json:"quality"`
	Degraded    bool     `json:"degraded"`
	IsHidden    bool     `json:"is_hidden"`
	IsRead      bool     `json:"is_read"`
	IsStarred   bool     `json:"is_starred"`
	PublishedAt string   `json:"published_at,omitempty"`
	IngestedAt  string   `json:"ingested_at,omitempty"`
	Content     string   `json:"content,omitempty"`
}

// Feed describes a registered feed and its fetch health.
type Feed struct {
	ID            int64  `json:"id"`
	URL           string `json:"url"`
	Name          string `json:"name"`
	Enabled       bool   `json:"enabled"`
	Failing       bool   `json:"failing"`
	ErrorCount    int    `json:"error_count"`
	LastError     string `json:"last_error,omitempty"`
	LastFetchedAt string `json:"last_fetched_at,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// Preferences mirrors the reader preference row.
type Preferences struct {
	Interests         []string `json:"interests"`
	Excludes          []string `json:"excludes"`
	MinRelevanceScore int      `json:"min_relevance_score"`
	PruneAfterDays    int      `json:"prune_after_days"`
	UpdatedAt         string   `json:"updated_at,omitempty"`
}

// Stats summarizes table contents.
type Stats struct {
	Feeds        int `json:"feeds"`
	EnabledFeeds int `json:"enabled_feeds"`
	FailingFeeds int `json:"failing_feeds"`
	Articles     int `json:"articles"`
	Unread       int `json:"unread"`
	Starred      int `json:"starred"`
	Hidden       int `json:"hidden"`
	Degraded     int `json:"degraded"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	StartedAt    string             `json:"started_at,omitempty"`
	DatabasePath string             `json:"database_path"`
	LockFilePath string             `json:"lock_file_path"`
	LogPath      string             `json:"log_path,omitempty"`
	APIBind      string             `json:"api_bind,omitempty"`
	Model        string             `json:"model"`
	Ingest       ingest.Status      `json:"ingest"`
	Stats        Stats              `json:"stats"`
	Schedule     []scheduler.Entry  `json:"schedule,omitempty"`
	Checks       []preflight.Result `json:"checks,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ArticleQuery selects articles for listing. Field tags serve both query
// string binding and JSON.
type ArticleQuery struct {
	ShowAll     bool  `form:"show_all" json:"show_all,omitempty"`
	UnreadOnly  bool  `form:"unread" json:"unread,omitempty"`
	StarredOnly bool  `form:"starred" json:"starred,omitempty"`
	FeedID      int64 `form:"feed_id" json:"feed_id,omitempty"`
	Limit       int   `form:"limit" json:"limit,omitempty"`
	Offset      int   `form:"offset" json:"offset,omitempty"`
}

// ReadRequest toggles the read flag.
type ReadRequest struct {
	IsRead *bool `json:"is_read" binding:"required"`
}

// StarRequest toggles the starred flag.
type StarRequest struct {
	IsStarred *bool `json:"is_starred" binding:"required"`
}

// CreateFeedRequest registers a feed. It doubles as the feed list entry
// format read by ParseFeedList.
type CreateFeedRequest struct {
	URL     string `json:"url" yaml:"url" binding:"required"`
	Name    string `json:"name,omitempty" yaml:"name"`
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled"`
}

// UpdateFeedRequest edits a feed; omitted fields are left unchanged.
type UpdateFeedRequest struct {
	Name    *string `json:"name,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// ReprocessRequest selects the articles to re-score. A zero FeedID selects
// every article.
type ReprocessRequest struct {
	FeedID int64 `json:"feed_id,omitempty"`
}

// StartedResponse reports whether a background run was started.
type StartedResponse struct {
	Started bool   `json:"started"`
	Detail  string `json:"detail,omitempty"`
}

// RemovedResponse reports how many rows an operation deleted.
type RemovedResponse struct {
	Removed int64 `json:"removed"`
}

// ImportReport summarizes a feed list import.
type ImportReport struct {
	Added    []Feed   `json:"added"`
	Existing []string `json:"existing"`
	Invalid  []string `json:"invalid"`
}
