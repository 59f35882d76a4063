package ingest

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"newsdiet/internal/config"
	"newsdiet/internal/dedup"
	"newsdiet/internal/feeds"
	"newsdiet/internal/logging"
	"newsdiet/internal/notifications"
	"newsdiet/internal/preferences"
	"newsdiet/internal/scoring"
	"newsdiet/internal/services/llm"
	"newsdiet/internal/store"
)

// Options bounds concurrency and selects the feed removal policy.
type Options struct {
	FetchConcurrency     int
	InferenceConcurrency int
	CascadeDelete        bool
}

// Dependencies are the collaborators an Orchestrator drives.
type Dependencies struct {
	Store       *store.Store
	Fetcher     *feeds.Fetcher
	Dedup       *dedup.Deduplicator
	Scorer      *scoring.Scorer
	Preferences *preferences.Resolver
	Notifier    notifications.Service
	Logger      *slog.Logger
}

// Orchestrator coordinates ingestion cycles, reprocessing, and pruning.
type Orchestrator struct {
	store    *store.Store
	fetcher  *feeds.Fetcher
	dedup    *dedup.Deduplicator
	scorer   *scoring.Scorer
	prefs    *preferences.Resolver
	notifier notifications.Service
	logger   *slog.Logger
	opts     Options

	inference *semaphore.Weighted
	// visibility orders threshold changes against article writes.
	visibility sync.RWMutex
	busy       atomic.Bool
	wg        sync.WaitGroup
	closers   []func() error

	mu     sync.RWMutex
	status Status
}

// New constructs an Orchestrator from explicit dependencies.
func New(deps Dependencies, opts Options) *Orchestrator {
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 4
	}
	if opts.InferenceConcurrency <= 0 {
		opts.InferenceConcurrency = 1
	}
	if opts.InferenceConcurrency > opts.FetchConcurrency {
		opts.InferenceConcurrency = opts.FetchConcurrency
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	prefs := deps.Preferences
	if prefs == nil {
		prefs = preferences.NewResolver(deps.Store)
	}
	logger := logging.NewComponentLogger(deps.Logger, "ingest")
	dd := deps.Dedup
	if dd == nil {
		dd = dedup.New(deps.Store, nil, deps.Logger)
	}
	return &Orchestrator{
		store:     deps.Store,
		fetcher:   deps.Fetcher,
		dedup:     dd,
		scorer:    deps.Scorer,
		prefs:     prefs,
		notifier:  notifier,
		logger:    logger,
		opts:      opts,
		inference: semaphore.NewWeighted(int64(opts.InferenceConcurrency)),
		status:    Status{State: StateIdle},
	}
}

// NewFromConfig wires the production collaborators for cfg around st.
func NewFromConfig(cfg *config.Config, st *store.Store, logger *slog.Logger) *Orchestrator {
	var (
		cache   dedup.SeenCache
		closers []func() error
	)
	if cfg.Redis.Enabled {
		redisCache := dedup.NewRedisCache(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			logging.WarnWithContext(logger, "redis seen-cache unreachable", "redis_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check redis.addr or disable [redis]"),
				logging.String(logging.FieldImpact, "deduplication falls back to the database until redis answers"),
			)
		}
		cancel()
		cache = redisCache
		closers = append(closers, redisCache.Close)
	}

	// scoring.max_retries is the whole request budget per article, so the
	// client itself never repeats a request.
	client := llm.NewClient(llm.Config{
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		APIKey:         cfg.LLM.APIKey,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, llm.WithMaxRetries(0), llm.WithEmptyContentRetries(0))
	model := scoring.NewLLMModel(client, cfg.Scoring.PromptChars)

	orch := New(Dependencies{
		Store:       st,
		Fetcher:     feeds.NewFromConfig(cfg, logger),
		Dedup:       dedup.New(st, cache, logger),
		Scorer:      scoring.NewScorer(model, scoring.OptionsFromConfig(cfg), logger),
		Preferences: preferences.NewResolver(st),
		Notifier:    notifications.NewService(cfg),
		Logger:      logger,
	}, Options{
		FetchConcurrency:     cfg.Ingest.FetchConcurrency,
		InferenceConcurrency: cfg.Ingest.InferenceConcurrency,
		CascadeDelete:        cfg.Ingest.DeleteArticlesOnFeedRemoval,
	})
	orch.closers = closers
	return orch
}

// Wait blocks until background runs started with Start or StartReprocess
// have returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close waits for background runs and releases auxiliary connections.
func (o *Orchestrator) Close() error {
	o.Wait()
	var firstErr error
	for _, closeFn := range o.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// acquire claims the single-run guard for state.
func (o *Orchestrator) acquire(state State) bool {
	if !o.busy.CompareAndSwap(false, true) {
		return false
	}
	o.mu.Lock()
	o.status.State = state
	o.status.StartedAt = time.Now().UTC()
	o.mu.Unlock()
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.status.State = StateIdle
	o.status.StartedAt = time.Time{}
	o.status.CycleID = ""
	o.mu.Unlock()
	o.busy.Store(false)
}
