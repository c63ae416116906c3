package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsImmediatelyAndOnInterval(t *testing.T) {
	var calls atomic.Int32
	runner := RunnerFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(runner, 20*time.Millisecond, false, discardLogger())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(70 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	if c := calls.Load(); c < 2 {
		t.Errorf("expected at least 2 runs (immediate + tick), got %d", c)
	}
}

func TestScheduler_RunErrorDoesNotStopLoop(t *testing.T) {
	var calls atomic.Int32
	runner := RunnerFunc(func(context.Context) error {
		calls.Add(1)
		return errors.New("board unavailable")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	if err := NewScheduler(runner, 15*time.Millisecond, false, discardLogger()).Run(ctx); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if c := calls.Load(); c < 2 {
		t.Errorf("expected the loop to keep running after errors, got %d runs", c)
	}
}

func TestScheduler_OddWeeksOnly(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantRun bool
	}{
		// 2026-01-05 is a Monday in ISO week 2.
		{"even week skipped", time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), false},
		// 2026-01-12 is in ISO week 3.
		{"odd week runs", time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			s := NewScheduler(RunnerFunc(func(context.Context) error {
				calls.Add(1)
				return nil
			}), time.Hour, true, discardLogger())
			s.now = func() time.Time { return tt.now }

			s.tick(context.Background())

			if got := calls.Load() == 1; got != tt.wantRun {
				t.Errorf("ran = %v, want %v", got, tt.wantRun)
			}
		})
	}
}

func TestScheduler_TickSkippedAfterCancel(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(RunnerFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}), time.Hour, false, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.tick(ctx)

	if calls.Load() != 0 {
		t.Error("expected no run once the context is cancelled")
	}
}
