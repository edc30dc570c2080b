// Package backoff provides the growing-interval schedule used to poll
// the console receive buffer for an expected response, instead of a
// single fixed sleep.
package backoff

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	blueerr "blue/internal/errors"
)

// Backoff implements exponential polling intervals with optional jitter.
type Backoff struct {
	// InitialDelay is the wait before the second check (default 100ms).
	InitialDelay time.Duration
	// MaxDelay caps a single wait (default 1s).
	MaxDelay time.Duration
	// Multiplier grows the delay each check (default 1.5).
	Multiplier float64
	// Jitter adds ±25% randomisation.
	Jitter bool
}

// Default returns the schedule used for console polling.
func Default() *Backoff {
	return &Backoff{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   1.5,
	}
}

// Until calls done immediately and then at growing intervals until it
// returns true, the budget elapses, or ctx is cancelled.
//
// It returns nil on a match, an error wrapping [blueerr.ErrTimeout]
// when the budget is spent, and the context error on cancellation.
// done is always consulted one final time at the deadline so output
// that arrived during the last wait is not missed.
func (b *Backoff) Until(ctx context.Context, budget time.Duration, done func() bool) error {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	multiplier := b.Multiplier
	if multiplier <= 1 {
		multiplier = 1.5
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = time.Second
	}

	deadline := time.Now().Add(budget)
	for {
		if done() {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("no match within %v: %w", budget, blueerr.ErrTimeout)
		}

		wait := delay
		if b.Jitter {
			wait = addJitter(delay)
		}
		if wait > remaining {
			wait = remaining
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		delay = time.Duration(float64(delay) * multiplier)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// addJitter adds ±25% randomisation to a duration.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	result := float64(d) + delta
	return time.Duration(math.Max(result, float64(time.Millisecond)))
}
