package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"newsdiet/internal/daemonctl"
	"newsdiet/internal/testsupport"
)

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	_, err := daemonctl.StopAndTerminate(cfg, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestStopSignalsPIDFileProcess(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep binary not available")
	}
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		<-done
	})
	if err := os.WriteFile(cfg.PIDPath(), []byte(strconv.Itoa(cmd.Process.Pid)+"\n"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	result, err := daemonctl.StopAndTerminate(cfg, 5*time.Second)
	if err != nil {
		t.Fatalf("StopAndTerminate: %v", err)
	}
	if !result.Signaled || result.ForcedKill {
		t.Fatalf("expected graceful signal, got %+v", result)
	}
	if result.PID != cmd.Process.Pid {
		t.Fatalf("unexpected pid %d", result.PID)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestReadPIDRejectsGarbage(t *testing.T) {
	path := t.TempDir() + "/newsdietd.pid"
	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := daemonctl.ReadPID(path); err == nil {
		t.Fatal("expected error for garbage pid file")
	}
}

func TestOfflineSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")

	snapshot, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snapshot.Reachable || snapshot.Running {
		t.Fatal("expected offline snapshot")
	}
	if snapshot.Stats.Feeds != 1 {
		t.Fatalf("expected one feed in offline stats, got %d", snapshot.Stats.Feeds)
	}
	if len(snapshot.Checks) == 0 {
		t.Fatal("expected preflight results")
	}
}
