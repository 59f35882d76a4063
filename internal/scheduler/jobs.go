package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsdiet/internal/config"
	"newsdiet/internal/ingest"
	"newsdiet/internal/logging"
)

// Job names registered by NewForDaemon.
const (
	JobRefresh      = "refresh"
	JobPrune        = "prune"
	JobLogRetention = "log_retention"
)

// Ingester is the orchestrator surface the daemon jobs drive.
type Ingester interface {
	Trigger(ctx context.Context) (ingest.CycleReport, bool, error)
	Prune(ctx context.Context) (ingest.PruneReport, error)
}

// NewForDaemon registers the refresh, prune, and log retention jobs for
// cfg. activeLog names the current daemon log file so retention never
// removes it.
func NewForDaemon(cfg *config.Config, ing Ingester, logger *slog.Logger, activeLog string) (*Scheduler, error) {
	s := New(logger)
	jobs := []Job{
		{
			Name: JobRefresh,
			Spec: fmt.Sprintf("@every %dm", cfg.Ingest.FetchIntervalMinutes),
			Run:  refreshJob(ing, s.logger),
		},
		{
			Name: JobPrune,
			Spec: cfg.Ingest.PruneSchedule,
			Run:  pruneJob(ing, s.logger),
		},
		{
			Name: JobLogRetention,
			Spec: cfg.Ingest.PruneSchedule,
			Run: func(context.Context) {
				maxAge := time.Duration(cfg.Logging.RetentionDays) * 24 * time.Hour
				removed, err := logging.RemoveExpiredLogs(s.logger, cfg.Paths.LogDir, maxAge, activeLog)
				if err != nil {
					logging.WarnWithContext(s.logger, "log retention skipped", "log_retention_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "old daemon logs are kept until the next run"),
					)
					return
				}
				if removed > 0 {
					s.logger.Info("old daemon logs removed", logging.Int("removed", removed))
				}
			},
		},
	}
	for _, job := range jobs {
		if err := s.Add(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func refreshJob(ing Ingester, logger *slog.Logger) func(context.Context) {
	return func(ctx context.Context) {
		_, started, err := ing.Trigger(ctx)
		switch {
		case !started:
			logger.Info("scheduled refresh skipped; a run is already in progress")
		case err != nil && !errors.Is(err, context.Canceled):
			logging.ErrorWithContext(logger, "scheduled refresh failed", "scheduled_refresh_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "feeds are retried at the next interval"),
			)
		}
	}
}

func pruneJob(ing Ingester, logger *slog.Logger) func(context.Context) {
	return func(ctx context.Context) {
		if _, err := ing.Prune(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(logger, "scheduled prune failed", "scheduled_prune_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the database file and disk space"),
				logging.String(logging.FieldImpact, "old articles are kept until the next prune"),
			)
		}
	}
}
