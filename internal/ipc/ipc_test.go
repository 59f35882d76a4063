package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsdiet/internal/api"
	"newsdiet/internal/daemon"
	"newsdiet/internal/ingest"
	"newsdiet/internal/ipc"
	"newsdiet/internal/logging"
	"newsdiet/internal/testsupport"
)

func newClient(t *testing.T) *ipc.Client {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	orch := ingest.NewFromConfig(cfg, st, logger)
	d, err := daemon.New(cfg, st, orch, logger, daemon.WithStartupChecks(false))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		orch.Wait()
	})

	// Socket paths are limited to ~108 bytes, so keep them short.
	socket := filepath.Join(t.TempDir(), "nd.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") || strings.Contains(err.Error(), "invalid argument") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func TestIPCStatusAndRefresh(t *testing.T) {
	client := newClient(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if status.PID == 0 || status.LockFilePath == "" {
		t.Fatalf("incomplete status %+v", status.DaemonStatus)
	}

	refresh, err := client.Refresh()
	if err != nil {
		t.Fatalf("Refresh RPC failed: %v", err)
	}
	if refresh.Detail == "" {
		t.Fatal("expected refresh detail")
	}

	prune, err := client.Prune()
	if err != nil {
		t.Fatalf("Prune RPC failed: %v", err)
	}
	if prune.Removed != 0 {
		t.Fatalf("expected nothing pruned, got %d", prune.Removed)
	}

	notify, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification RPC failed: %v", err)
	}
	if notify.Sent {
		t.Fatal("expected no notification without a topic")
	}
}

func TestIPCFeedsAndPreferences(t *testing.T) {
	client := newClient(t)

	feed, err := client.FeedAdd(api.CreateFeedRequest{URL: "https://example.com/rss", Name: "Example"})
	if err != nil {
		t.Fatalf("FeedAdd: %v", err)
	}
	if _, err := client.FeedAdd(api.CreateFeedRequest{URL: "https://example.com/rss"}); err == nil {
		t.Fatal("expected duplicate feed to fail")
	}

	name := "Renamed"
	updated, err := client.FeedUpdate(feed.ID, api.UpdateFeedRequest{Name: &name})
	if err != nil {
		t.Fatalf("FeedUpdate: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("expected rename, got %q", updated.Name)
	}

	report, err := client.FeedImport([]api.CreateFeedRequest{
		{URL: "https://example.com/rss"},
		{URL: "https://other.example/atom"},
	})
	if err != nil {
		t.Fatalf("FeedImport: %v", err)
	}
	if len(report.Added) != 1 || len(report.Existing) != 1 {
		t.Fatalf("unexpected import report %+v", report)
	}

	feeds, err := client.FeedList()
	if err != nil {
		t.Fatalf("FeedList: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("expected two feeds, got %d", len(feeds))
	}

	if _, err := client.Reprocess(9999); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found for unknown feed, got %v", err)
	}

	prefs, err := client.Preferences()
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	prefs.MinRelevanceScore = 8
	saved, err := client.SetPreferences(prefs)
	if err != nil {
		t.Fatalf("SetPreferences: %v", err)
	}
	if saved.MinRelevanceScore != 8 {
		t.Fatalf("expected threshold 8, got %d", saved.MinRelevanceScore)
	}

	removed, err := client.FeedRemove(feed.ID)
	if err != nil {
		t.Fatalf("FeedRemove: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no articles removed, got %d", removed)
	}

	articles, err := client.ArticleList(api.ArticleQuery{ShowAll: true})
	if err != nil {
		t.Fatalf("ArticleList: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("expected no articles, got %d", len(articles))
	}
	if _, err := client.ArticleRead(1, true); err == nil {
		t.Fatal("expected missing article to fail")
	}
}
