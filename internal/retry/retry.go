package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/amishk599/boardsync/internal/model"
)

// Policy controls how many times and how patiently an operation is retried.
type Policy struct {
	MaxRetries int           // additional attempts after the first failure
	BaseDelay  time.Duration // delay before the first retry, doubled per retry

	// Retryable decides whether err is worth another attempt.
	// Defaults to IsTransient when nil.
	Retryable func(err error) bool
}

// Do runs fn, retrying transient failures with exponential backoff and jitter.
func Do[T any](ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	v, err := fn(ctx)
	if err == nil || !retryable(err) {
		return v, err
	}

	lastErr := err
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		delay := p.backoffDelay(attempt, lastErr)

		logger.Warn("retrying after transient error",
			"op", op,
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		v, err = fn(ctx)
		if err == nil || !retryable(err) {
			return v, err
		}
		lastErr = err
	}

	var zero T
	return zero, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (p Policy) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// IsTransient returns true if the error represents a transient failure worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation — never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// The board answered and said no; asking again won't change that.
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	// Non-HTTP errors (network, DNS, etc.) — retryable.
	return true
}

// IsRateLimited reports whether err is an HTTP 429. Used for non-idempotent
// requests, where only a rejected-before-processing failure is safe to repeat.
func IsRateLimited(err error) bool {
	var httpErr *model.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == 429
}

// ParseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func ParseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
