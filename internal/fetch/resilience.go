// Package fetch implements the two-tier resilience policy used to obtain
// weather conditions: bounded retry against the primary source, then a single
// fallback to a secondary source, then an explicit failure.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Attempt is one try at producing a value.
type Attempt[T any] func(ctx context.Context) (T, error)

// RetryPolicy bounds how often and how fast an Attempt is repeated.
type RetryPolicy struct {
	// MaxRetries is the total number of attempts. Values below 1 mean 1.
	MaxRetries int
	// Delay is the fixed wait between attempts. No wait follows the last one.
	Delay time.Duration
	// Clock drives the wait. Nil uses the real clock.
	Clock clockwork.Clock
	// OnFailure, if set, observes every failed attempt (1-based).
	OnFailure func(attempt int, err error)
}

// RetryError reports that every attempt failed. It wraps the last error.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// Retry wraps fn so it is attempted up to p.MaxRetries times. A cancelled
// context stops the sequence immediately and returns the context error.
func Retry[T any](p RetryPolicy, fn Attempt[T]) Attempt[T] {
	attempts := max(p.MaxRetries, 1)
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return func(ctx context.Context) (T, error) {
		var zero T
		var lastErr error
		for attempt := 1; attempt <= attempts; attempt++ {
			v, err := fn(ctx)
			if err == nil {
				return v, nil
			}
			lastErr = err
			if p.OnFailure != nil {
				p.OnFailure(attempt, err)
			}
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			if attempt < attempts && !sleepWithContext(ctx, clock, p.Delay) {
				return zero, ctx.Err()
			}
		}
		return zero, &RetryError{Attempts: attempts, Err: lastErr}
	}
}

// Fallback runs secondary only when primary fails. When both fail the error
// matches domain.ErrDataUnavailable and wraps both causes. onFallback, if
// set, observes the primary error before the secondary runs.
func Fallback[T any](primary, secondary Attempt[T], onFallback func(err error)) Attempt[T] {
	return func(ctx context.Context) (T, error) {
		v, perr := primary(ctx)
		if perr == nil {
			return v, nil
		}
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if secondary == nil {
			return zero, fmt.Errorf("%w: primary: %w", domain.ErrDataUnavailable, perr)
		}
		if onFallback != nil {
			onFallback(perr)
		}
		v, serr := secondary(ctx)
		if serr == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%w: primary: %w; fallback: %w", domain.ErrDataUnavailable, perr, serr)
	}
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
