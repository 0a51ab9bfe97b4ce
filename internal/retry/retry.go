// Package retry runs operations with bounded attempts and backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMaxAttemptsExceeded wraps the last error once every attempt has failed.
var ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")

// Config configures retry behavior.
type Config struct {
	// MaxAttempts includes the initial attempt.
	MaxAttempts int
	// Delay before the first retry.
	Delay time.Duration
	// MaxDelay caps the backoff; zero means uncapped.
	MaxDelay time.Duration
	// Multiplier grows the delay after each retry; values <= 1 keep it fixed.
	Multiplier float64
	// IsRetryable reports whether err is worth another attempt. Nil retries everything.
	IsRetryable func(error) bool
	// OnRetry runs before each wait with the attempt that just failed.
	OnRetry func(attempt int, err error)
}

// Fixed returns a config with a constant delay between attempts.
func Fixed(attempts int, delay time.Duration) Config {
	return Config{MaxAttempts: attempts, Delay: delay, Multiplier: 1}
}

// Exponential returns a doubling backoff config capped at maxDelay.
func Exponential(attempts int, base, maxDelay time.Duration) Config {
	return Config{MaxAttempts: attempts, Delay: base, MaxDelay: maxDelay, Multiplier: 2}
}

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx is done. fn receives the 1-based attempt number.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context, attempt int) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	delay := cfg.Delay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w: %w", err, lastErr)
			}
			return err
		}
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if cfg.IsRetryable != nil && !cfg.IsRetryable(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if delay > 0 {
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%w: %w", ctx.Err(), lastErr)
			case <-timer.C:
			}
			if cfg.Multiplier > 1 {
				delay = time.Duration(float64(delay) * cfg.Multiplier)
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, cfg.MaxAttempts, lastErr)
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
