package daemonrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"newsdiet/internal/daemonctl"
	"newsdiet/internal/testsupport"
)

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if pid, err := daemonctl.ReadPID(cfg.PIDPath()); err == nil && pid == os.Getpid() {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("pid file never appeared")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, err := os.Stat(cfg.PIDPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(cfg.Paths.LogDir, "newsdietd-*.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one daemon log file, got %v", matches)
	}
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "newsdietd-1.log")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for range 2 {
		if err := ensureCurrentLogPointer(dir, target); err != nil {
			t.Fatalf("ensureCurrentLogPointer: %v", err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "newsdietd.log"))
	if err != nil || string(data) != "x" {
		t.Fatalf("pointer does not resolve to target: %q %v", data, err)
	}
}
