package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newsdiet/internal/config"
	"newsdiet/internal/notifications"
)

type captured struct {
	title    string
	body     string
	tags     string
	priority string
	click    string
}

func newCapture(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			body:     string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			click:    r.Header.Get("Click"),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyHighRelevance(context.Background(), notifications.Article{Title: "x", Score: 10}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestHighRelevanceRespectsMinScore(t *testing.T) {
	srv, requests := newCapture(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.MinScore = 9
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	if err := svc.NotifyHighRelevance(ctx, notifications.Article{Title: "Meh", Score: 8}); err != nil {
		t.Fatalf("notify below threshold: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("expected no request below min score, got %d", len(*requests))
	}

	err := svc.NotifyHighRelevance(ctx, notifications.Article{
		Title:    "Python 3.14 released",
		FeedName: "LWN",
		URL:      "https://example.com/py",
		Score:    10,
		Tags:     []string{"Python", "Open Source"},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "newsdiet - Must Read" || got.priority != "high" || got.click != "https://example.com/py" {
		t.Fatalf("unexpected headers: %+v", got)
	}
	if !strings.Contains(got.body, "Python 3.14 released (10/10)") || !strings.Contains(got.body, "Topics: Python, Open Source") {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestCycleFailuresSummary(t *testing.T) {
	srv, requests := newCapture(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.CycleFailures = true
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	if err := svc.NotifyCycleFailures(ctx, notifications.CycleSummary{Feeds: 3}); err != nil {
		t.Fatalf("notify without failures: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatal("expected no request when nothing failed")
	}

	err := svc.NotifyCycleFailures(ctx, notifications.CycleSummary{
		Feeds:       3,
		NewArticles: 4,
		Failures:    []notifications.FeedFailure{{FeedName: "Broken", Reason: "http 500"}},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.tags != "newsdiet,error,feeds" || got.priority != "" {
		t.Fatalf("unexpected headers: %+v", got)
	}
	if !strings.Contains(got.body, "1 of 3 feeds failed (4 new articles stored)") || !strings.Contains(got.body, "- Broken: http 500") {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestCycleFailuresDisabled(t *testing.T) {
	srv, requests := newCapture(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.CycleFailures = false
	svc := notifications.NewService(&cfg)

	err := svc.NotifyCycleFailures(context.Background(), notifications.CycleSummary{
		Feeds:    1,
		Failures: []notifications.FeedFailure{{FeedName: "x", Reason: "y"}},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatal("expected cycle failure alerts to be suppressed")
	}
}

func TestSendReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic closed", http.StatusForbidden)
	}))
	defer srv.Close()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	if err := notifications.NewService(&cfg).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from 403 response")
	}
}
