package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"newsdiet/internal/logs"
)

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsdietd.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\nd\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, offset, err := logs.Last(path, 3)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 3 || lines[0] != "b" || lines[2] != "d" {
		t.Fatalf("unexpected lines %#v", lines)
	}
	if offset != 8 {
		t.Fatalf("expected offset at end of file, got %d", offset)
	}

	lines, _, err = logs.Last(path, 10)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 4 || lines[0] != "a" {
		t.Fatalf("expected every line when fewer than n exist, got %#v", lines)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("expected nothing for a missing file, got %#v at %d", lines, offset)
	}
}

type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func waitForLines(t *testing.T, c *collector, want int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if lines := c.snapshot(); len(lines) >= want {
			return lines
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d lines, got %#v", want, c.snapshot())
	return nil
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsdietd.log")
	if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	_, offset, err := logs.Last(path, 0)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, c.add) }()

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()
	if _, err := file.WriteString("first\nsec"); err != nil {
		t.Fatalf("append: %v", err)
	}
	waitForLines(t, c, 1)
	if _, err := file.WriteString("ond\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	lines := waitForLines(t, c, 2)
	if lines[0] != "first" || lines[1] != "second" {
		t.Fatalf("unexpected lines %#v", lines)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFollowRestartsWhenLinkMoves(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "newsdietd-1.log")
	second := filepath.Join(dir, "newsdietd-2.log")
	if err := os.WriteFile(first, []byte("one\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	current := logs.CurrentPath(dir)
	if err := os.Symlink(first, current); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	_, offset, err := logs.Last(current, 0)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &collector{}
	go func() { _ = logs.Follow(ctx, current, offset, 10*time.Millisecond, c.add) }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(second, []byte("fresh start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	if err := os.Remove(current); err != nil {
		t.Fatalf("remove link: %v", err)
	}
	if err := os.Symlink(second, current); err != nil {
		t.Fatalf("relink: %v", err)
	}

	lines := waitForLines(t, c, 1)
	if lines[0] != "fresh start" {
		t.Fatalf("expected the new file from the start, got %#v", lines)
	}
}
