package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Pacer blocks until the caller may issue its next unit of work.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay sleeps a fixed duration on every call, including the first.
// Used between jobs of a publishing batch, where each job may fan out into
// several board requests.
type FixedDelay struct {
	delay time.Duration
}

// NewFixedDelay returns a pacer that always waits d. A zero d never blocks.
func NewFixedDelay(d time.Duration) *FixedDelay {
	return &FixedDelay{delay: d}
}

func (p *FixedDelay) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pacer wait: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

// MinGap enforces a minimum delay between consecutive calls sharing a key.
// Different keys never block each other.
type MinGap struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	minDelay time.Duration
}

// NewMinGap creates a limiter enforcing minDelay between calls for the same key.
func NewMinGap(minDelay time.Duration) *MinGap {
	return &MinGap{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// WaitKey blocks until enough time has passed since the last call for key.
// Returns an error if the context is cancelled while waiting.
func (r *MinGap) WaitKey(ctx context.Context, key string) error {
	r.mu.Lock()
	last, ok := r.lastCall[key]
	now := time.Now()

	if !ok {
		r.lastCall[key] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[key] = now
		r.mu.Unlock()
		return nil
	}

	remaining := r.minDelay - elapsed
	// Reserve the slot so a concurrent caller queues behind us.
	r.lastCall[key] = now.Add(remaining)
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-time.After(remaining):
	}
	return nil
}

// Keyed adapts a MinGap to the Pacer interface for a single key.
func (r *MinGap) Keyed(key string) Pacer {
	return keyedPacer{limiter: r, key: key}
}

type keyedPacer struct {
	limiter *MinGap
	key     string
}

func (k keyedPacer) Wait(ctx context.Context) error {
	return k.limiter.WaitKey(ctx, k.key)
}
