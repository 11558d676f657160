// Package resilience holds the retry policy used by long-lived connections.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
)

var ErrTooManyFailures = errors.New("too many consecutive failures")

// BackoffConfig defines the reconnect policy of a connection
type BackoffConfig struct {
	// Base is the delay after the first failure
	Base time.Duration

	// Max caps the delay between attempts
	Max time.Duration

	// MaxFailures stops retrying after this many consecutive failures. Zero retries forever.
	MaxFailures int
}

// DefaultBackoffConfig returns the policy used for TV channels: 5s doubling up to 5 minutes, never giving up
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Base: 5 * time.Second,
		Max:  300 * time.Second,
	}
}

func (c BackoffConfig) normalize() BackoffConfig {
	def := DefaultBackoffConfig()
	if c.Base <= 0 {
		c.Base = def.Base
	}
	if c.Max < c.Base {
		c.Max = c.Base
	}
	if c.MaxFailures < 0 {
		c.MaxFailures = 0
	}
	return c
}

// ExponentialDelay returns min(2^(failures-1) * base, max). It returns zero when failures is zero.
func ExponentialDelay(failures int, base, max time.Duration) time.Duration {
	if failures <= 0 {
		return 0
	}
	d := base
	for i := 1; i < failures; i++ {
		if d >= max/2 {
			return max
		}
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

// Backoff counts consecutive failures of a connection and hands out the delay before the next attempt.
type Backoff struct {
	config   BackoffConfig
	mu       sync.Mutex
	failures int
	schedule *backoff.ExponentialBackOff
}

// NewBackoff creates a Backoff for the given configuration
func NewBackoff(config BackoffConfig) *Backoff {
	config = config.normalize()
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = config.Base
	schedule.MaxInterval = config.Max
	schedule.Multiplier = 2
	schedule.RandomizationFactor = 0
	schedule.Reset()
	return &Backoff{config: config, schedule: schedule}
}

// Config returns the normalized configuration
func (b *Backoff) Config() BackoffConfig {
	return b.config
}

// Failure records a failed attempt and returns how long to wait before the next one.
// Once MaxFailures is configured and reached, ErrTooManyFailures is returned instead.
func (b *Backoff) Failure() (time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.config.MaxFailures > 0 && b.failures >= b.config.MaxFailures {
		return 0, errors.Wrapf(ErrTooManyFailures, "%d failures", b.failures)
	}
	d := b.schedule.NextBackOff()
	if d > b.config.Max {
		d = b.config.Max
	}
	return d, nil
}

// Reset clears the failure count after a fully successful connection
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.failures = 0
	b.schedule.Reset()
	b.mu.Unlock()
}

// Failures returns the current number of consecutive failures
func (b *Backoff) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Sleep waits for d or until ctx is done, whichever happens first
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
