package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"newsdiet/internal/feeds"
	"newsdiet/internal/logging"
	"newsdiet/internal/notifications"
	"newsdiet/internal/preferences"
	"newsdiet/internal/scoring"
	"newsdiet/internal/services"
	"newsdiet/internal/store"
)

// RunCycle runs one ingestion cycle and returns its report. It returns
// ErrBusy when another cycle or reprocess run holds the guard.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleReport, error) {
	report, started, err := o.Trigger(ctx)
	if !started {
		return CycleReport{}, ErrBusy
	}
	return report, err
}

// Trigger runs a cycle unless one is already in flight, in which case it
// returns immediately with started=false.
func (o *Orchestrator) Trigger(ctx context.Context) (CycleReport, bool, error) {
	if !o.acquire(StateRunning) {
		o.logger.Debug("cycle trigger coalesced into running cycle")
		return CycleReport{}, false, nil
	}
	defer o.release()
	report, err := o.cycle(ctx)
	return report, true, err
}

// Start launches a cycle in the background and reports whether it started.
func (o *Orchestrator) Start(ctx context.Context) bool {
	if !o.acquire(StateRunning) {
		return false
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.release()
		if _, err := o.cycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Error("ingestion cycle failed", logging.Error(err))
		}
	}()
	return true
}

func (o *Orchestrator) cycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{ID: uuid.NewString(), Started: time.Now().UTC()}
	o.setCycleID(report.ID)
	ctx = services.WithCycleID(ctx, report.ID)
	logger := logging.WithContext(ctx, o.logger)

	err := o.runFeeds(ctx, &report)
	report.Finished = time.Now().UTC()
	if err != nil {
		report.Error = err.Error()
	}
	o.recordCycle(report, err)

	totals := report.Totals()
	attrs := []logging.Attr{
		logging.Int("feeds", totals.Feeds),
		logging.Int("failed_feeds", totals.FailedFeeds),
		logging.Int("new_articles", totals.NewArticles),
		logging.Int("duplicates", totals.Duplicates),
		logging.Int("degraded", totals.Degraded),
		logging.Duration("duration", report.Duration()),
	}
	if err != nil {
		logging.ErrorWithContext(logger, "ingestion cycle aborted", "cycle_aborted",
			append(attrs,
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the database file and disk space"),
			)...,
		)
	} else {
		logger.Info("ingestion cycle complete", logging.Args(attrs...)...)
	}
	o.notifyFailures(ctx, report)
	return report, err
}

func (o *Orchestrator) runFeeds(ctx context.Context, report *CycleReport) error {
	feedList, err := o.store.ListFeeds(ctx, true)
	if err != nil {
		return storageError("list feeds", err)
	}
	if len(feedList) == 0 {
		o.logger.Info("no enabled feeds to fetch")
		return nil
	}

	results := make([]FeedResult, len(feedList))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.opts.FetchConcurrency)
	for i, feed := range feedList {
		group.Go(func() error {
			result, err := o.processFeed(groupCtx, feed)
			results[i] = result
			return err
		})
	}
	err = group.Wait()
	report.Feeds = results
	return err
}

// processFeed returns a non-nil error only for cycle-fatal storage failures.
func (o *Orchestrator) processFeed(ctx context.Context, feed *store.Feed) (FeedResult, error) {
	ctx = services.WithFeedID(ctx, feed.ID)
	logger := logging.WithContext(ctx, o.logger).With(logging.String(logging.FieldFeedURL, feed.URL))
	result := FeedResult{FeedID: feed.ID, FeedName: feed.Name}

	doc, err := o.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		result.setErr(err)
		if ctx.Err() != nil {
			return result, nil
		}
		logging.WarnWithContext(logger, "feed fetch failed", "feed_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the feed URL and that the site is reachable"),
			logging.String(logging.FieldImpact, "no new articles from this feed this cycle"),
		)
		if recErr := o.store.RecordFeedFailure(context.WithoutCancel(ctx), feed.ID, err.Error()); recErr != nil {
			return result, storageError("record feed failure", recErr)
		}
		return result, nil
	}

	for candidate := range doc.Entries() {
		if ctx.Err() != nil {
			result.setErr(ctx.Err())
			break
		}
		outcome, err := o.processCandidate(ctx, feed, candidate)
		if err != nil {
			if services.IsFatal(err) {
				result.setErr(err)
				return result, err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.setErr(err)
				break
			}
			result.SkippedEntries++
			logger.Debug("entry skipped", logging.String("title", candidate.Title), logging.Error(err))
			continue
		}
		switch outcome {
		case outcomeNew:
			result.NewArticles++
		case outcomeDegraded:
			result.NewArticles++
			result.Degraded++
		case outcomeDuplicate:
			result.Duplicates++
		}
	}
	for _, skipped := range doc.Skipped() {
		result.SkippedEntries++
		logger.Debug("feed entry could not be normalized", logging.String("reason", skipped.Error()))
	}

	if err := o.store.RecordFeedSuccess(context.WithoutCancel(ctx), feed.ID); err != nil {
		return result, storageError("record feed success", err)
	}
	logger.Info("feed processed",
		logging.Int("new_articles", result.NewArticles),
		logging.Int("duplicates", result.Duplicates),
		logging.Int("degraded", result.Degraded),
		logging.Int("skipped", result.SkippedEntries),
	)
	return result, nil
}

type outcome int

const (
	outcomeDuplicate outcome = iota
	outcomeNew
	outcomeDegraded
)

func (o *Orchestrator) processCandidate(ctx context.Context, feed *store.Feed, candidate feeds.Candidate) (outcome, error) {
	isNew, key, err := o.dedup.IsNew(ctx, feed.ID, candidate.Link, candidate.GUID)
	if err != nil {
		if services.IsFatal(err) {
			return outcomeDuplicate, storageError("dedup lookup", err)
		}
		return outcomeDuplicate, err
	}
	if !isNew {
		return outcomeDuplicate, nil
	}

	candidate = o.fetcher.Enrich(ctx, candidate)
	if err := o.inference.Acquire(ctx, 1); err != nil {
		return outcomeDuplicate, err
	}
	// Scoring and the insert finish even if ctx is canceled meanwhile; the
	// scorer bounds each model call with its own timeout.
	workCtx := context.WithoutCancel(ctx)
	result, err := o.score(workCtx, scoring.Article{Title: candidate.Title, Text: candidate.Body})
	if err != nil {
		return outcomeDuplicate, err
	}

	published := time.Now().UTC()
	if candidate.Published != nil {
		published = *candidate.Published
	}
	var (
		id       int64
		inserted bool
	)
	err = o.withVisibility(workCtx, func(prefs preferences.Context) error {
		var insertErr error
		id, inserted, insertErr = o.store.InsertArticleIfAbsent(workCtx, store.NewArticle{
			FeedID:      feed.ID,
			DedupKey:    key,
			URL:         candidate.Link,
			GUID:        candidate.GUID,
			Title:       candidate.Title,
			Content:     candidate.Body,
			PublishedAt: published,
			Assessment:  result.Assessment(prefs),
		})
		if insertErr != nil {
			return storageError("insert article", insertErr)
		}
		return nil
	})
	if err != nil {
		return outcomeDuplicate, err
	}
	if !inserted {
		return outcomeDuplicate, nil
	}
	o.dedup.Remember(workCtx, key)

	if result.Degraded {
		return outcomeDegraded, nil
	}
	if err := o.notifier.NotifyHighRelevance(workCtx, notifications.Article{
		Title:    candidate.Title,
		FeedName: feed.Name,
		URL:      candidate.Link,
		Score:    result.Score,
		Tags:     result.Tags,
	}); err != nil {
		o.logger.Debug("high relevance notification failed",
			logging.Int64(logging.FieldArticleID, id),
			logging.Error(err),
		)
	}
	return outcomeNew, nil
}

// score rates one article against the preferences stored at this moment, so
// edits made during a run apply to every article scored after them. The
// caller must hold an inference slot; score releases it.
func (o *Orchestrator) score(ctx context.Context, article scoring.Article) (scoring.Result, error) {
	defer o.inference.Release(1)
	prefs, err := o.prefs.Resolve(ctx)
	if err != nil {
		return scoring.Result{}, storageError("resolve preferences", err)
	}
	return o.scorer.Score(ctx, article, prefs), nil
}

// withVisibility runs write with the preferences stored now. It blocks
// UpdatePreferences until write returns, so an article scored under an old
// threshold is still stored with the hidden flag of the current one.
func (o *Orchestrator) withVisibility(ctx context.Context, write func(preferences.Context) error) error {
	o.visibility.RLock()
	defer o.visibility.RUnlock()
	prefs, err := o.prefs.Resolve(ctx)
	if err != nil {
		return storageError("resolve preferences", err)
	}
	return write(prefs)
}

func (o *Orchestrator) notifyFailures(ctx context.Context, report CycleReport) {
	summary := notifications.CycleSummary{
		CycleID:  report.ID,
		Feeds:    len(report.Feeds),
		Duration: report.Duration(),
	}
	for _, feed := range report.Feeds {
		summary.NewArticles += feed.NewArticles
		if feed.Err == nil || errors.Is(feed.Err, context.Canceled) {
			continue
		}
		summary.Failures = append(summary.Failures, notifications.FeedFailure{
			FeedName: feed.FeedName,
			Reason:   feed.Error,
		})
	}
	if err := o.notifier.NotifyCycleFailures(context.WithoutCancel(ctx), summary); err != nil {
		o.logger.Debug("cycle failure notification failed", logging.Error(err))
	}
}
