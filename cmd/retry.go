package cmd

import (
	"context"
	"time"
)

type RetryConfig struct {
	// Attempts is the number of retries after the first call.
	Attempts  int
	Interval  time.Duration
	Retryable func(error) bool
	OnRetry   func(attempt int, err error)
}

// RunWithRetry calls fn until it succeeds, returns a non-retryable error, or
// the attempts run out. It returns ctx.Err() if ctx ends while waiting.
func RunWithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	err := fn()
	if err == nil || cfg.Attempts <= 0 {
		return err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err = fn(); err == nil {
			return nil
		}
	}

	return err
}
