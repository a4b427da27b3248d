// Package retry provides bounded retries with exponential backoff for calls
// to external providers.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config bounds a retry loop. Attempts counts the total number of tries,
// including the first one.
type Config struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultConfig retries three times starting at 200ms.
func DefaultConfig() Config {
	return Config{Attempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// Do invokes fn until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The delay doubles after each failed attempt, capped
// at MaxDelay. The last error is returned once the budget runs out.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	delay := cfg.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", cfg.Attempts, lastErr)
}
