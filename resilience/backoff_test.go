package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestBackoff_DefaultSchedule(t *testing.T) {
	b := NewBackoff(DefaultBackoffConfig())
	expected := []time.Duration{5, 10, 20, 40, 80, 160, 300, 300}
	for i, want := range expected {
		d, err := b.Failure()
		assert.NoError(t, err)
		assert.Equal(t, want*time.Second, d, "failure %d", i+1)
	}
	assert.Equal(t, len(expected), b.Failures())
}

func TestBackoff_ResetReturnsToBase(t *testing.T) {
	b := NewBackoff(BackoffConfig{Base: time.Millisecond, Max: 50 * time.Millisecond})
	for i := 0; i < 4; i++ {
		_, _ = b.Failure()
	}
	b.Reset()
	assert.Equal(t, 0, b.Failures())
	d, err := b.Failure()
	assert.NoError(t, err)
	assert.Equal(t, time.Millisecond, d)
}

func TestBackoff_MaxFailures(t *testing.T) {
	b := NewBackoff(BackoffConfig{Base: time.Millisecond, Max: time.Second, MaxFailures: 3})
	_, err := b.Failure()
	assert.NoError(t, err)
	_, err = b.Failure()
	assert.NoError(t, err)
	_, err = b.Failure()
	assert.True(t, errors.Is(err, ErrTooManyFailures))
}

func TestBackoff_Normalize(t *testing.T) {
	cfg := NewBackoff(BackoffConfig{Base: 10 * time.Second, Max: time.Second, MaxFailures: -1}).Config()
	assert.Equal(t, 10*time.Second, cfg.Base)
	assert.Equal(t, 10*time.Second, cfg.Max)
	assert.Equal(t, 0, cfg.MaxFailures)

	cfg = NewBackoff(BackoffConfig{}).Config()
	assert.Equal(t, DefaultBackoffConfig(), cfg)
}

func TestExponentialDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), ExponentialDelay(0, time.Second, time.Minute))
	assert.Equal(t, time.Second, ExponentialDelay(1, time.Second, time.Minute))
	assert.Equal(t, 8*time.Second, ExponentialDelay(4, time.Second, time.Minute))
	assert.Equal(t, time.Minute, ExponentialDelay(100, time.Second, time.Minute))
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBackoffProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("delays are non-decreasing and capped", prop.ForAll(
		func(baseMs int, maxMs int, attempts int) bool {
			base := time.Duration(baseMs) * time.Millisecond
			max := time.Duration(maxMs) * time.Millisecond
			b := NewBackoff(BackoffConfig{Base: base, Max: max})
			cfg := b.Config()
			var last time.Duration
			for i := 1; i <= attempts; i++ {
				d, err := b.Failure()
				if err != nil || d < last || d > cfg.Max {
					return false
				}
				if d != ExponentialDelay(i, cfg.Base, cfg.Max) {
					return false
				}
				last = d
			}
			return true
		},
		gen.IntRange(1, 10000),
		gen.IntRange(1, 600000),
		gen.IntRange(1, 40),
	))

	properties.Property("reset returns to the base delay", prop.ForAll(
		func(baseMs int, attempts int) bool {
			base := time.Duration(baseMs) * time.Millisecond
			b := NewBackoff(BackoffConfig{Base: base, Max: 300 * time.Second})
			for i := 0; i < attempts; i++ {
				_, _ = b.Failure()
			}
			b.Reset()
			d, err := b.Failure()
			return err == nil && d == b.Config().Base
		},
		gen.IntRange(1, 10000),
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}
