package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	Delay       time.Duration

	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Do calls operation with attempt numbers starting at 1 until it succeeds,
// returns a Fatal error, ctx is done or MaxAttempts (default 10) is used up.
// Attempts are spaced by a constant Delay.
func Do(ctx context.Context, operation func(attempt int) error, opts ...Option) error {
	cfg := Config{MaxAttempts: 10}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)

	var last error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled after %d attempts: %w", attempt-1, err)
		}

		last = operation(attempt)
		switch {
		case last == nil:
			return nil
		case IsFatal(last):
			return fmt.Errorf("fatal error (not retrying): %w", last)
		case attempt == cfg.MaxAttempts:
			continue
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, last)
		}
		if cfg.Delay <= 0 {
			continue
		}
		t := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("context cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-t.C:
		}
	}

	return &ExhaustedError{Attempts: cfg.MaxAttempts, Last: last}
}

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(c *Config) { c.MaxAttempts = n }
}

// WithDelay sets the pause between attempts.
func WithDelay(d time.Duration) Option {
	return func(c *Config) { c.Delay = d }
}

// WithOnRetry registers a callback invoked before each retry.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// FatalError marks an error that must not be retried.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err so that Do stops immediately. Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}

// IsExhausted reports whether err came from running out of attempts.
func IsExhausted(err error) bool {
	var exhausted *ExhaustedError
	return errors.As(err, &exhausted)
}
