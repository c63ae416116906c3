package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Runner performs one pipeline run.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// Scheduler owns the main loop: ticks on an interval and triggers a run on
// each tick, optionally only during odd ISO weeks.
type Scheduler struct {
	runner       Runner
	interval     time.Duration
	oddWeeksOnly bool
	now          func() time.Time
	logger       *slog.Logger
}

// NewScheduler creates a scheduler that triggers runner at the given interval.
func NewScheduler(runner Runner, interval time.Duration, oddWeeksOnly bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		oddWeeksOnly: oddWeeksOnly,
		now:          time.Now,
		logger:       logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"interval", s.interval.String(),
		"odd_weeks_only", s.oddWeeksOnly,
	)

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.oddWeeksOnly {
		if _, week := s.now().ISOWeek(); week%2 == 0 {
			s.logger.Info("skipping run in even week", "iso_week", week)
			return
		}
	}
	if err := s.runner.Run(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}
