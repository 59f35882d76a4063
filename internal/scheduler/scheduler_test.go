package scheduler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"newsdiet/internal/ingest"
	"newsdiet/internal/logging"
	"newsdiet/internal/scheduler"
	"newsdiet/internal/testsupport"
)

type fakeIngester struct {
	triggers atomic.Int32
	prunes   atomic.Int32
	busy     bool
	err      error
}

func (f *fakeIngester) Trigger(context.Context) (ingest.CycleReport, bool, error) {
	f.triggers.Add(1)
	if f.busy {
		return ingest.CycleReport{}, false, nil
	}
	return ingest.CycleReport{ID: "cycle"}, true, f.err
}

func (f *fakeIngester) Prune(context.Context) (ingest.PruneReport, error) {
	f.prunes.Add(1)
	return ingest.PruneReport{}, f.err
}

func TestAddRejectsInvalidJobs(t *testing.T) {
	s := scheduler.New(logging.NewNop())
	noop := func(context.Context) {}

	if err := s.Add(scheduler.Job{Name: "bad", Spec: "every day", Run: noop}); err == nil {
		t.Fatal("expected invalid spec to be rejected")
	}
	if err := s.Add(scheduler.Job{Spec: "@daily", Run: noop}); err == nil {
		t.Fatal("expected missing name to be rejected")
	}
	if err := s.Add(scheduler.Job{Name: "once", Spec: "@daily", Run: noop}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(scheduler.Job{Name: "once", Spec: "@hourly", Run: noop}); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
}

func TestRunNowUsesSchedulerContext(t *testing.T) {
	s := scheduler.New(logging.NewNop())
	var sawCanceled atomic.Bool
	var runs atomic.Int32
	if err := s.Add(scheduler.Job{Name: "probe", Spec: "@daily", Run: func(ctx context.Context) {
		runs.Add(1)
		sawCanceled.Store(ctx.Err() != nil)
	}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.RunNow("probe"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if runs.Load() != 1 || sawCanceled.Load() {
		t.Fatalf("expected one run with a live context, runs=%d canceled=%v", runs.Load(), sawCanceled.Load())
	}

	s.Stop(time.Second)
	if err := s.RunNow("probe"); err != nil {
		t.Fatalf("RunNow after stop: %v", err)
	}
	if !sawCanceled.Load() {
		t.Fatal("expected job context to be canceled after Stop")
	}
	if err := s.RunNow("missing"); err == nil {
		t.Fatal("expected unknown job error")
	}
}

func TestRunNowRecoversFromPanics(t *testing.T) {
	s := scheduler.New(logging.NewNop())
	if err := s.Add(scheduler.Job{Name: "boom", Spec: "@daily", Run: func(context.Context) {
		panic("boom")
	}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.RunNow("boom"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
}

func TestScheduledJobFires(t *testing.T) {
	s := scheduler.New(logging.NewNop())
	fired := make(chan struct{}, 1)
	if err := s.Add(scheduler.Job{Name: "tick", Spec: "@every 1s", Run: func(context.Context) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.Start()
	defer s.Stop(time.Second)

	entries := s.Entries()
	if len(entries) != 1 || entries[0].Next.IsZero() {
		t.Fatalf("expected next run time for started job, got %+v", entries)
	}
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not fire")
	}
}

func TestNewForDaemonRegistersJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Ingest.FetchIntervalMinutes = 15
	ing := &fakeIngester{}

	s, err := scheduler.NewForDaemon(cfg, ing, logging.NewNop(), "")
	if err != nil {
		t.Fatalf("NewForDaemon: %v", err)
	}
	entries := s.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected three jobs, got %+v", entries)
	}
	if entries[0].Name != scheduler.JobRefresh || entries[0].Spec != "@every 15m" {
		t.Fatalf("unexpected refresh entry: %+v", entries[0])
	}
	if entries[1].Name != scheduler.JobPrune || entries[1].Spec != cfg.Ingest.PruneSchedule {
		t.Fatalf("unexpected prune entry: %+v", entries[1])
	}

	if err := s.RunNow(scheduler.JobRefresh); err != nil {
		t.Fatalf("RunNow refresh: %v", err)
	}
	if err := s.RunNow(scheduler.JobPrune); err != nil {
		t.Fatalf("RunNow prune: %v", err)
	}
	if ing.triggers.Load() != 1 || ing.prunes.Load() != 1 {
		t.Fatalf("expected one trigger and one prune, got %d/%d", ing.triggers.Load(), ing.prunes.Load())
	}

	ing.busy = true
	ing.err = errors.New("disk full")
	if err := s.RunNow(scheduler.JobRefresh); err != nil {
		t.Fatalf("RunNow refresh: %v", err)
	}
	if err := s.RunNow(scheduler.JobPrune); err != nil {
		t.Fatalf("RunNow prune: %v", err)
	}
}

func TestLogRetentionJobKeepsActiveLog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.RetentionDays = 1
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	old := time.Now().Add(-72 * time.Hour)
	stale := filepath.Join(cfg.Paths.LogDir, "newsdietd-20200101T000000Z.log")
	active := filepath.Join(cfg.Paths.LogDir, "newsdietd-20200102T000000Z.log")
	other := filepath.Join(cfg.Paths.LogDir, "notes.txt")
	for _, path := range []string{stale, active, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	s, err := scheduler.NewForDaemon(cfg, &fakeIngester{}, logging.NewNop(), active)
	if err != nil {
		t.Fatalf("NewForDaemon: %v", err)
	}
	if err := s.RunNow(scheduler.JobLogRetention); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale log removed, stat err=%v", err)
	}
	for _, path := range []string{active, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}
