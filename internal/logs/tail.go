package logs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// CurrentName is the link in the log directory that points at the newest
// daemon log file.
const CurrentName = "newsdietd.log"

const maxLineBytes = 1024 * 1024

// CurrentPath returns the path of the current daemon log link.
func CurrentPath(logDir string) string {
	return filepath.Join(logDir, CurrentName)
}

// Last returns up to n trailing lines of path together with the file size,
// which is the offset to pass to Follow. A missing file yields no lines.
func Last(path string, n int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if n <= 0 {
		return nil, info.Size(), nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	ring := make([]string, 0, n)
	start := 0
	for scanner.Scan() {
		if len(ring) < n {
			ring = append(ring, scanner.Text())
			continue
		}
		ring[start] = scanner.Text()
		start = (start + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, 0, len(ring))
	lines = append(lines, ring[start:]...)
	lines = append(lines, ring[:start]...)
	return lines, info.Size(), nil
}

// Follow calls emit for every complete line written to path after offset
// until ctx is done. When the file shrinks or the path starts resolving to a
// different file, reading restarts at the beginning of the new file.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, emit func(string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		current os.FileInfo
		partial []byte
	)
	for {
		info, err := os.Stat(path)
		switch {
		case err == nil:
			if current != nil && !os.SameFile(current, info) {
				offset, partial = 0, nil
			}
			if info.Size() < offset {
				offset, partial = 0, nil
			}
			current = info
			if info.Size() > offset {
				offset, partial, err = readAppended(path, offset, partial, emit)
				if err != nil {
					return err
				}
			}
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("stat log file: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// readAppended emits complete lines after offset. Bytes after the last
// newline are carried in partial until the writer finishes the line.
func readAppended(path string, offset int64, partial []byte, emit func(string)) (int64, []byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return offset, partial, nil
		}
		return offset, partial, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, partial, fmt.Errorf("seek log file: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return offset, partial, fmt.Errorf("read log file: %w", err)
	}
	offset += int64(len(data))

	data = append(partial, data...)
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		emit(string(bytes.TrimRight(data[:idx], "\r")))
		data = data[idx+1:]
	}
	if len(data) > maxLineBytes {
		emit(string(data))
		data = nil
	}
	return offset, bytes.Clone(data), nil
}
