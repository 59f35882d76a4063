package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"newsdiet/internal/api"
	"newsdiet/internal/config"
	"newsdiet/internal/ingest"
	"newsdiet/internal/logging"
	"newsdiet/internal/notifications"
	"newsdiet/internal/preflight"
	"newsdiet/internal/scheduler"
	"newsdiet/internal/services/ollama"
	"newsdiet/internal/store"
)

const shutdownGrace = 30 * time.Second

// ModelEnsurer makes the configured model available on the model server.
type ModelEnsurer interface {
	Ensure(ctx context.Context) (bool, error)
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithLogPath records the active daemon log file for status output and
// excludes it from log retention.
func WithLogPath(path string) Option {
	return func(d *Daemon) { d.logPath = path }
}

// WithModelEnsurer replaces the Ollama client used at startup.
func WithModelEnsurer(e ModelEnsurer) Option {
	return func(d *Daemon) { d.models = e }
}

// WithNotifier replaces the notification service used for test messages.
func WithNotifier(n notifications.Service) Option {
	return func(d *Daemon) { d.notifier = n }
}

// WithStartupChecks toggles preflight checks at start.
func WithStartupChecks(enabled bool) Option {
	return func(d *Daemon) { d.startupChecks = enabled }
}

// Daemon owns the background services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	orch     *ingest.Orchestrator
	sched    *scheduler.Scheduler
	service  *api.Service
	models   ModelEnsurer
	notifier notifications.Service
	api      *apiServer
	logPath  string

	startupChecks bool

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	mu     sync.RWMutex
	checks []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, orch *ingest.Orchestrator, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil || orch == nil {
		return nil, errors.New("daemon requires config, store, and orchestrator")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	d := &Daemon{
		cfg:           cfg,
		logger:        logger,
		store:         st,
		orch:          orch,
		service:       api.NewService(st, orch),
		startupChecks: true,
		lockPath:      cfg.LockPath(),
		lock:          flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.models == nil && cfg.LLM.EnsureModel {
		d.models = ollama.New(ollama.Config{
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			PullTimeout: time.Duration(cfg.LLM.PullTimeoutSeconds) * time.Second,
		}, logger)
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}

	sched, err := scheduler.NewForDaemon(cfg, orch, logger, d.logPath)
	if err != nil {
		return nil, fmt.Errorf("configure scheduler: %w", err)
	}
	d.sched = sched
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the API server and the scheduler,
// and launches startup tasks in the background.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another newsdiet daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx, d.cancel = nil, nil
		return err
	}
	d.sched.Start()

	d.startedAt = time.Now().UTC()
	d.running.Store(true)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.startup(d.ctx)
	}()

	d.logger.Info("newsdiet daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
		logging.Int("pid", os.Getpid()),
	)
	return nil
}

func (d *Daemon) startup(ctx context.Context) {
	if d.models != nil {
		if _, err := d.models.Ensure(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(d.logger, "model not available", "model_ensure_failed",
				logging.String("model", d.cfg.LLM.Model),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check llm.base_url and that Ollama is running"),
				logging.String(logging.FieldImpact, "articles are stored with the degraded score until the model answers"),
			)
		}
	}
	if d.startupChecks {
		results := preflight.RunAll(ctx, d.cfg)
		d.mu.Lock()
		d.checks = results
		d.mu.Unlock()
		for _, failed := range preflight.Failed(results) {
			logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
				logging.String("check", failed.Name),
				logging.String("detail", failed.Detail),
			)
		}
	}
	if d.cfg.Ingest.RunOnStart && ctx.Err() == nil {
		if err := d.sched.RunNow(scheduler.JobRefresh); err != nil {
			d.logger.Warn("initial refresh not run", logging.Error(err))
		}
	}
}

// Stop cancels background work, waits for in-flight runs, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.sched.Stop(shutdownGrace)
	d.wg.Wait()
	d.orch.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("newsdiet daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var firstErr error
	if err := d.orch.Close(); err != nil {
		firstErr = err
	}
	if err := d.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// runContext is the parent for background runs started on request; they
// outlive the request but not the daemon.
func (d *Daemon) runContext() context.Context {
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}

// Refresh starts an ingestion cycle unless one is already running.
func (d *Daemon) Refresh() api.StartedResponse {
	if d.orch.Start(d.runContext()) {
		d.logger.Info("refresh requested", logging.String(logging.FieldEventType, "refresh_requested"))
		return api.StartedResponse{Started: true, Detail: "refresh started"}
	}
	return api.StartedResponse{Started: false, Detail: "a refresh or reprocess run is already in progress"}
}

// Reprocess starts re-scoring stored articles. It returns ingest.ErrBusy
// while another run holds the orchestrator.
func (d *Daemon) Reprocess(feedID int64) (api.StartedResponse, error) {
	if feedID > 0 {
		if _, err := d.store.GetFeed(d.runContext(), feedID); err != nil {
			return api.StartedResponse{}, err
		}
	}
	if !d.orch.StartReprocess(d.runContext(), feedID) {
		return api.StartedResponse{}, ingest.ErrBusy
	}
	d.logger.Info("reprocess requested",
		logging.Int64(logging.FieldFeedID, feedID),
		logging.String(logging.FieldEventType, "reprocess_requested"),
	)
	return api.StartedResponse{Started: true, Detail: "reprocess started"}, nil
}

// Prune removes old unstarred articles now.
func (d *Daemon) Prune(ctx context.Context) (ingest.PruneReport, error) {
	return d.orch.Prune(ctx)
}

// TestNotification sends a test message through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Service returns the article, feed, and preference operations.
func (d *Daemon) Service() *api.Service {
	return d.service
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (api.DaemonStatus, error) {
	stats, err := d.service.Stats(ctx)
	if err != nil {
		return api.DaemonStatus{}, err
	}
	d.mu.RLock()
	checks := append([]preflight.Result(nil), d.checks...)
	d.mu.RUnlock()
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    api.FormatTime(d.startedAt),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		APIBind:      d.api.address(),
		Model:        d.cfg.LLM.Model,
		Ingest:       d.orch.Status(),
		Stats:        stats,
		Schedule:     d.sched.Entries(),
		Checks:       checks,
	}, nil
}
