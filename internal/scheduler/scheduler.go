package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newsdiet/internal/logging"
)

// Job is a named unit of periodic work. Spec is a standard five-field
// cron expression or a descriptor such as "@every 1h".
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context)
}

// Entry describes a registered job and its timing.
type Entry struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next,omitzero"`
	Prev time.Time `json:"prev,omitzero"`
}

// Scheduler owns a cron instance and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	chain  cron.Chain
	logger *slog.Logger

	mu      sync.Mutex
	jobs    map[string]registered
	order   []string
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

type registered struct {
	id   cron.EntryID
	spec string
	job  cron.Job
}

// New creates an idle scheduler in the local time zone.
func New(logger *slog.Logger) *Scheduler {
	logger = logging.NewComponentLogger(logger, "scheduler")
	adapter := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(adapter)),
		chain:  cron.NewChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		logger: logger,
		jobs:   make(map[string]registered),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job. Names must be unique.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("scheduler: job needs a name and a run function")
	}
	schedule, err := cron.ParseStandard(job.Spec)
	if err != nil {
		return fmt.Errorf("scheduler: job %s: invalid spec %q: %w", job.Name, job.Spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("scheduler: job %s already registered", job.Name)
	}
	name, run := job.Name, job.Run
	wrapped := s.chain.Then(cron.FuncJob(func() {
		started := time.Now()
		s.logger.Debug("job started", logging.String("job", name))
		run(s.ctx)
		s.logger.Debug("job finished",
			logging.String("job", name),
			logging.Duration("duration", time.Since(started)),
		)
	}))
	id := s.cron.Schedule(schedule, wrapped)
	s.jobs[name] = registered{id: id, spec: job.Spec, job: wrapped}
	s.order = append(s.order, name)
	return nil
}

// Start begins firing jobs on their schedules. Calling it twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("scheduler started", logging.Int("jobs", len(s.jobs)))
}

// RunNow executes the named job synchronously through the same wrappers
// used for scheduled runs. A run that overlaps an in-flight one is skipped.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	entry, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("scheduler: unknown job %s", name)
	}
	entry.job.Run()
	return nil
}

// Entries lists registered jobs in registration order.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.order))
	for _, name := range s.order {
		reg := s.jobs[name]
		entry := Entry{Name: name, Spec: reg.spec}
		if s.started {
			cronEntry := s.cron.Entry(reg.id)
			entry.Next = cronEntry.Next
			entry.Prev = cronEntry.Prev
		}
		out = append(out, entry)
	}
	return out
}

// Names returns the registered job names in order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Stop cancels the job context and waits up to timeout for running jobs.
// It reports whether every job finished in time.
func (s *Scheduler) Stop(timeout time.Duration) bool {
	s.cancel()
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return true
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return true
	case <-time.After(timeout):
		s.logger.Warn("scheduled jobs still running at shutdown",
			logging.Duration("waited", timeout),
			logging.String(logging.FieldEventType, "scheduler_stop_timeout"),
		)
		return false
	}
}

// cronLogger forwards cron's internal logging to slog. Routine scheduling
// chatter goes to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append(keysAndValues, logging.Error(err), logging.String(logging.FieldEventType, "scheduler_job_error"))
	l.logger.Error("cron: "+msg, args...)
}
