package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDaemonCommandRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ingest]\nprune_schedule = \"whenever\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newDaemonCommand()
	cmd.SetArgs([]string{"--config", path})
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		t.Fatal("expected invalid config to fail")
	}
	if !strings.Contains(err.Error(), "prune_schedule") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDaemonCommandRejectsArguments(t *testing.T) {
	cmd := newDaemonCommand()
	cmd.SetArgs([]string{"extra"})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected positional arguments to be rejected")
	}
}
