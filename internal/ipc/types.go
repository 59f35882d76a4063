package ipc

import (
	"newsdiet/internal/api"
	"newsdiet/internal/ingest"
)

// ServiceName is the registered JSON-RPC service.
const ServiceName = "Newsdiet"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse wraps the daemon status.
type StatusResponse struct {
	api.DaemonStatus
}

// RefreshRequest starts an ingestion cycle.
type RefreshRequest struct{}

// RefreshResponse reports whether a cycle was started.
type RefreshResponse = api.StartedResponse

// ReprocessRequest starts re-scoring stored articles.
type ReprocessRequest = api.ReprocessRequest

// ReprocessResponse reports whether re-scoring was started.
type ReprocessResponse = api.StartedResponse

// PruneRequest removes old unstarred articles.
type PruneRequest struct{}

// PruneResponse reports the prune outcome.
type PruneResponse = ingest.PruneReport

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ArticleListRequest filters article listing.
type ArticleListRequest = api.ArticleQuery

// ArticleListResponse contains matching articles.
type ArticleListResponse struct {
	Articles []api.Article `json:"articles"`
}

// ArticleFlagRequest sets the read or starred flag of one article.
type ArticleFlagRequest struct {
	ID    int64 `json:"id"`
	Value bool  `json:"value"`
}

// ArticleResponse contains a single article.
type ArticleResponse struct {
	Article api.Article `json:"article"`
}

// ArticleClearRequest removes every article.
type ArticleClearRequest struct{}

// RemovedResponse reports number of removed rows.
type RemovedResponse = api.RemovedResponse

// FeedListRequest lists registered feeds.
type FeedListRequest struct{}

// FeedListResponse contains registered feeds.
type FeedListResponse struct {
	Feeds []api.Feed `json:"feeds"`
}

// FeedAddRequest registers a feed.
type FeedAddRequest = api.CreateFeedRequest

// FeedUpdateRequest renames or toggles a feed.
type FeedUpdateRequest struct {
	ID int64 `json:"id"`
	api.UpdateFeedRequest
}

// FeedResponse contains a single feed.
type FeedResponse struct {
	Feed api.Feed `json:"feed"`
}

// FeedRemoveRequest removes a feed.
type FeedRemoveRequest struct {
	ID int64 `json:"id"`
}

// FeedImportRequest registers every entry of a parsed feed list.
type FeedImportRequest struct {
	Entries []api.CreateFeedRequest `json:"entries"`
}

// FeedImportResponse summarizes an import.
type FeedImportResponse = api.ImportReport

// PreferencesRequest fetches stored preferences.
type PreferencesRequest struct{}

// PreferencesResponse carries reader preferences in both directions.
type PreferencesResponse = api.Preferences
