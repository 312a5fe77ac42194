package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/gigradar/internal/pipeline"
)

// Runner is one pipeline pass.
type Runner interface {
	RunOnce(ctx context.Context) (int, error)
}

// Scheduler owns the main loop: one immediate run, then one run per interval.
// Overlapping ticks are skipped rather than queued.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs the pipeline at the given interval.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, then waits for an in-flight run to
// return. It returns nil on graceful shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}

	cl := cronLogger{s.logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	))
	if _, err := c.AddFunc("@every "+s.interval.String(), func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("scheduling pipeline run: %w", err)
	}

	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runOnce(ctx)
	if ctx.Err() != nil {
		s.logger.Info("shutting down scheduler")
		return nil
	}

	c.Start()
	<-ctx.Done()

	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := s.runner.RunOnce(ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		s.logger.Info("skipping tick, run already in progress")
	case errors.Is(err, context.Canceled):
		s.logger.Info("run cancelled", "new_jobs", n)
	case err != nil:
		s.logger.Error("pipeline run failed", "error", err)
	default:
		s.logger.Debug("tick complete", "new_jobs", n)
	}
}

// cronLogger routes cron's own messages through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
