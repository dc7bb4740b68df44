// Package scheduler runs a small set of named periodic jobs outside the
// request path. The scheduler is an explicitly constructed instance with a
// symmetric start/stop lifecycle: each registered job runs once immediately on
// start, then on its fixed interval. A run always finishes before that job's
// next tick, and a failing or panicking run is logged without unscheduling the
// job or disturbing its siblings.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFunc is one run of a periodic job.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	run      JobFunc
}

// Scheduler owns the registry of periodic jobs and their lifecycle.
type Scheduler struct {
	logger *zap.Logger

	mu      sync.Mutex
	jobs    []job
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// New constructs an idle scheduler.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger}
}

// Register adds a named job. Registration after Start is rejected so the job
// set stays fixed for the lifetime of a run.
func (s *Scheduler) Register(name string, interval time.Duration, run JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	if run == nil {
		return fmt.Errorf("job %s: nil job func", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("job %s: scheduler already started", name)
	}
	for _, existing := range s.jobs {
		if existing.name == name {
			return fmt.Errorf("job %s: already registered", name)
		}
	}
	s.jobs = append(s.jobs, job{name: name, interval: interval, run: run})
	return nil
}

// Start launches one goroutine per registered job. Each job executes
// immediately, then on its interval. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(runCtx, j)
	}
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop cancels all pending ticks and waits for in-flight runs to finish.
// Stopping an already-stopped (or never-started) scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.wg.Done()

	s.runOnce(ctx, j)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j job) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked", zap.String("job", j.name), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := j.run(ctx); err != nil {
		s.logger.Warn("scheduled job failed",
			zap.String("job", j.name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	s.logger.Debug("scheduled job finished",
		zap.String("job", j.name),
		zap.Duration("elapsed", time.Since(start)))
}
