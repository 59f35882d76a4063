package ingest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"newsdiet/internal/logging"
	"newsdiet/internal/preferences"
	"newsdiet/internal/scoring"
	"newsdiet/internal/services"
	"newsdiet/internal/store"
)

// Reprocess re-scores stored articles with the current preferences. A zero
// feedID selects every article. It returns ErrBusy while a cycle runs.
func (o *Orchestrator) Reprocess(ctx context.Context, feedID int64) (ReprocessReport, error) {
	if !o.acquire(StateReprocessing) {
		return ReprocessReport{}, ErrBusy
	}
	defer o.release()
	return o.reprocess(ctx, feedID)
}

// StartReprocess launches Reprocess in the background and reports whether
// it started.
func (o *Orchestrator) StartReprocess(ctx context.Context, feedID int64) bool {
	if !o.acquire(StateReprocessing) {
		return false
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.release()
		if _, err := o.reprocess(ctx, feedID); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Error("reprocess failed", logging.Error(err))
		}
	}()
	return true
}

func (o *Orchestrator) reprocess(ctx context.Context, feedID int64) (ReprocessReport, error) {
	report := ReprocessReport{FeedID: feedID, Started: time.Now().UTC()}
	err := o.rescore(ctx, &report)
	report.Finished = time.Now().UTC()
	if err != nil {
		report.Error = err.Error()
	}
	o.recordReprocess(report)
	o.logger.Info("reprocess finished",
		logging.Int64("feed_id", feedID),
		logging.Int("total", report.Total),
		logging.Int("rescored", report.Rescored),
		logging.Int("degraded", report.Degraded),
		logging.Duration("duration", report.Finished.Sub(report.Started)),
	)
	return report, err
}

func (o *Orchestrator) rescore(ctx context.Context, report *ReprocessReport) error {
	targets, err := o.store.RescoreTargets(ctx, report.FeedID)
	if err != nil {
		return storageError("list rescore targets", err)
	}
	report.Total = len(targets)
	for _, target := range targets {
		if err := o.inference.Acquire(ctx, 1); err != nil {
			return err
		}
		workCtx := context.WithoutCancel(ctx)
		result, err := o.score(workCtx, scoring.Article{Title: target.Title, Text: target.Content})
		if err != nil {
			return err
		}

		err = o.withVisibility(workCtx, func(prefs preferences.Context) error {
			return o.store.UpdateAssessment(workCtx, target.ID, result.Assessment(prefs))
		})
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Removed while the model was busy.
			continue
		case err != nil:
			return storageError("update assessment", err)
		}
		report.Rescored++
		if result.Degraded {
			report.Degraded++
		}
	}
	return nil
}

// DeleteFeed removes a feed, deleting its articles when the cascade policy
// is on. It returns the number of articles removed.
func (o *Orchestrator) DeleteFeed(ctx context.Context, feedID int64) (int64, error) {
	removed, err := o.store.DeleteFeed(ctx, feedID, o.opts.CascadeDelete)
	if err != nil {
		return 0, err
	}
	o.logger.Info("feed removed",
		logging.Int64(logging.FieldFeedID, feedID),
		logging.Bool("cascade", o.opts.CascadeDelete),
		logging.Int64("articles_removed", removed),
	)
	return removed, nil
}

// Prune deletes unstarred articles older than the configured retention.
func (o *Orchestrator) Prune(ctx context.Context) (PruneReport, error) {
	prefs, err := o.store.GetPreferences(ctx)
	if err != nil {
		return PruneReport{}, storageError("read preferences", err)
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -prefs.PruneAfterDays)
	removed, err := o.store.PruneArticles(ctx, cutoff)
	if err != nil {
		return PruneReport{}, storageError("prune articles", err)
	}
	o.logger.Info("pruned old articles",
		logging.Int64("removed", removed),
		logging.Int("prune_after_days", prefs.PruneAfterDays),
	)
	return PruneReport{Cutoff: cutoff, Removed: removed}, nil
}

// UpdatePreferences stores new preferences and re-derives hidden flags when
// the threshold changed. Interests and excludes take effect for articles
// scored afterwards; use Reprocess to apply them to stored articles.
func (o *Orchestrator) UpdatePreferences(ctx context.Context, prefs store.Preferences) (store.Preferences, error) {
	prefs.Interests = cleanList(prefs.Interests)
	prefs.Excludes = cleanList(prefs.Excludes)
	o.visibility.Lock()
	defer o.visibility.Unlock()
	previous, err := o.store.GetPreferences(ctx)
	if err != nil {
		return store.Preferences{}, storageError("read preferences", err)
	}
	updated, err := o.store.UpdatePreferences(ctx, prefs)
	switch {
	case errors.Is(err, store.ErrInvalid):
		return store.Preferences{}, services.Wrap(services.ErrValidation, "preferences", "update", "", err)
	case err != nil:
		return store.Preferences{}, storageError("update preferences", err)
	}
	if updated.MinRelevanceScore != previous.MinRelevanceScore {
		changed, err := o.store.RecomputeHidden(ctx, updated.MinRelevanceScore)
		if err != nil {
			return updated, storageError("recompute hidden", err)
		}
		o.logger.Info("visibility recomputed",
			logging.Int("threshold", updated.MinRelevanceScore),
			logging.Int64("changed", changed),
		)
	}
	return updated, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = collapse(value)
		if value == "" || slices.Contains(out, value) {
			continue
		}
		out = append(out, value)
	}
	return out
}

func collapse(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
