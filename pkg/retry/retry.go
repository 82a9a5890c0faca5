// Package retry provides a reusable bounded-retry policy with exponential
// backoff, shared by every call site that talks to a flaky upstream.
package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry loop. The delay doubles after each failed
// attempt; the final attempt's error is returned as-is.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Retryable reports whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
}

// Do runs fn until it succeeds, a non-retryable error occurs, the context is
// done, or MaxAttempts is exhausted.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	delay := p.BaseDelay
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
