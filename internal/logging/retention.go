package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RemoveExpiredLogs deletes daemon log files in dir whose modification time
// is older than maxAge. The file at keep, normally the log the running
// daemon writes to, survives regardless of age. A non-positive maxAge keeps
// everything. Files that cannot be removed are logged and skipped.
func RemoveExpiredLogs(logger *slog.Logger, dir string, maxAge time.Duration, keep string) (int, error) {
	if maxAge <= 0 || dir == "" {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, DaemonLogPattern))
	if err != nil {
		return 0, fmt.Errorf("list daemon logs: %w", err)
	}
	var keepInfo os.FileInfo
	if keep != "" {
		keepInfo, _ = os.Stat(keep)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if keepInfo != nil && os.SameFile(info, keepInfo) {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "daemon log not removed", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on paths.log_dir"),
				String(FieldImpact, "expired log file stays on disk"),
			)
			continue
		}
		removed++
	}
	return removed, nil
}
