package store

import "time"

// Quality labels accepted by the articles table.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// Feed is a registered RSS/Atom source and its fetch health.
type Feed struct {
	ID            int64
	URL           string
	Name          string
	Enabled       bool
	LastFetchedAt *time.Time
	ErrorCount    int
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Failing reports whether the most recent fetch attempt failed.
func (f Feed) Failing() bool {
	return f.ErrorCount > 0
}

// Assessment is the scored part of an article.
type Assessment struct {
	Score    int
	Tags     []string
	Quality  string
	Summary  string
	Degraded bool
	Hidden   bool
}

// NewArticle carries everything needed to insert an article once.
type NewArticle struct {
	FeedID      int64
	DedupKey    string
	URL         string
	GUID        string
	Title       string
	Content     string
	PublishedAt time.Time
	Assessment
}

// Article is a stored article as read back for presentation.
type Article struct {
	ID          int64
	FeedID      int64 // zero when the owning feed was removed
	FeedName    string
	DedupKey    string
	URL         string
	GUID        string
	Title       string
	Content     string
	PublishedAt time.Time
	IngestedAt  time.Time
	Assessment
	IsRead    bool
	IsStarred bool
}

// ArticleFilter narrows ListArticles. The zero value lists visible articles
// newest first with the default limit.
type ArticleFilter struct {
	ShowAll     bool
	UnreadOnly  bool
	StarredOnly bool
	FeedID      int64
	Limit       int
	Offset      int
}

// RescoreTarget is the input needed to score a stored article again.
type RescoreTarget struct {
	ID      int64
	FeedID  int64
	Title   string
	Content string
}

// Preferences is the singleton reader preference row.
type Preferences struct {
	Interests         []string
	Excludes          []string
	MinRelevanceScore int
	PruneAfterDays    int
	UpdatedAt         time.Time
}

// DefaultPreferences returns the values seeded into a new database.
func DefaultPreferences() Preferences {
	return Preferences{
		Interests:         []string{"Python", "DevOps", "AI", "Web Development", "Open Source"},
		Excludes:          []string{"Cryptocurrency", "NFT"},
		MinRelevanceScore: 5,
		PruneAfterDays:    30,
	}
}

// Stats summarizes table contents for status output.
type Stats struct {
	Feeds        int
	EnabledFeeds int
	FailingFeeds int
	Articles     int
	Unread       int
	Starred      int
	Hidden       int
	Degraded     int
}
