// internal/scheduler/runner.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner drives periodic jobs on a cron schedule. A job that is still running
// when its next slot arrives is skipped, and a panicking job is recovered.
type Runner struct {
	mu      sync.Mutex
	cron    *cron.Cron
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewRunner creates a stopped runner.
func NewRunner(logger *slog.Logger) *Runner {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every schedules job to run once per interval. Intervals are whole seconds.
func (r *Runner) Every(name string, interval time.Duration, job func(ctx context.Context)) error {
	if interval < time.Second {
		return fmt.Errorf("schedule %s: interval %s is below one second", name, interval)
	}
	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", interval.Round(time.Second)), func() {
		job(r.ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	r.logger.Info("Scheduled job", "job", name, "interval", interval.String())
	return nil
}

// Start begins running scheduled jobs in the background.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.cron.Start()
	r.logger.Info("Scheduler started", "jobs", len(r.cron.Entries()))
}

// Stop prevents new runs, cancels the job context and waits for running jobs
// to return or ctx to expire.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	stopped := r.cron.Stop()
	r.cancel()
	select {
	case <-stopped.Done():
		r.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
