package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsdiet/internal/config"
)

const userAgent = "newsdiet/0.1"

// Article describes a newly stored article worth alerting about.
type Article struct {
	Title    string
	FeedName string
	URL      string
	Score    int
	Tags     []string
}

// FeedFailure names one feed that failed during a cycle.
type FeedFailure struct {
	FeedName string
	Reason   string
}

// CycleSummary describes a finished ingestion cycle.
type CycleSummary struct {
	CycleID     string
	Feeds       int
	NewArticles int
	Failures    []FeedFailure
	Duration    time.Duration
}

// Service defines the notification surface used by the orchestrator.
type Service interface {
	NotifyHighRelevance(ctx context.Context, article Article) error
	NotifyCycleFailures(ctx context.Context, summary CycleSummary) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		minScore:      cfg.Notifications.MinScore,
		cycleFailures: cfg.Notifications.CycleFailures,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	click    string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	minScore      int
	cycleFailures bool
}

func (n *ntfyService) NotifyHighRelevance(ctx context.Context, article Article) error {
	if article.Score < n.minScore {
		return nil
	}
	title := strings.TrimSpace(article.Title)
	message := fmt.Sprintf("%s (%d/10)", title, article.Score)
	if feed := strings.TrimSpace(article.FeedName); feed != "" {
		message += "\nFrom: " + feed
	}
	if len(article.Tags) > 0 {
		message += "\nTopics: " + strings.Join(article.Tags, ", ")
	}
	tags := []string{"newsdiet", "article"}
	priority := ""
	if article.Score >= 10 {
		priority = "high"
	}
	return n.send(ctx, payload{
		title:    "newsdiet - Must Read",
		message:  message,
		tags:     tags,
		priority: priority,
		click:    strings.TrimSpace(article.URL),
	})
}

func (n *ntfyService) NotifyCycleFailures(ctx context.Context, summary CycleSummary) error {
	if !n.cycleFailures || len(summary.Failures) == 0 {
		return nil
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "%d of %d feeds failed", len(summary.Failures), summary.Feeds)
	if summary.NewArticles > 0 {
		fmt.Fprintf(&builder, " (%d new articles stored)", summary.NewArticles)
	}
	for _, failure := range summary.Failures {
		fmt.Fprintf(&builder, "\n- %s: %s", strings.TrimSpace(failure.FeedName), strings.TrimSpace(failure.Reason))
	}
	priority := ""
	if len(summary.Failures) == summary.Feeds {
		priority = "high"
	}
	return n.send(ctx, payload{
		title:    "newsdiet - Feed Errors",
		message:  builder.String(),
		tags:     []string{"newsdiet", "error", "feeds"},
		priority: priority,
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "newsdiet - Test",
		message:  "Notification system test",
		tags:     []string{"newsdiet", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	if data.click != "" {
		req.Header.Set("Click", data.click)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyHighRelevance(context.Context, Article) error      { return nil }
func (noopService) NotifyCycleFailures(context.Context, CycleSummary) error { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
