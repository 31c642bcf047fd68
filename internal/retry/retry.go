// Package retry runs an operation in a bounded loop with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the wait before the first retry; each later wait doubles.
	DefaultBaseDelay = 500 * time.Millisecond
)

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy bounds a retry loop. The zero value makes a single attempt.
type Policy struct {
	// MaxRetries is how many times a failed attempt is repeated. Negative means none.
	MaxRetries int
	// BaseDelay is the first backoff; zero means DefaultBaseDelay.
	BaseDelay time.Duration
	// Sleep replaces the timer wait, mainly for tests.
	Sleep SleepFunc
	// Name labels log lines.
	Name string
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Delay is the wait before retry n, counting from 0: BaseDelay * 2^n.
func (p Policy) Delay(n int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return base << uint(n)
}

// Do calls fn until it succeeds or MaxRetries retries have failed. Attempts
// are strictly sequential; attempt is 0 for the first call. Cancelling ctx
// stops the loop before the next attempt or during a wait and returns
// ctx.Err().
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	retries := max(p.MaxRetries, 0)
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt >= retries {
			break
		}
		d := p.Delay(attempt)
		log.Warn().Str("op", p.Name).Int("attempt", attempt+1).Dur("delay", d).Err(err).Msg("attempt failed; retrying")
		if err := sleep(ctx, d); err != nil {
			return err
		}
	}
	log.Error().Str("op", p.Name).Int("attempts", retries+1).Err(lastErr).Msg("retries exhausted")
	return &ExhaustedError{Attempts: retries + 1, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
