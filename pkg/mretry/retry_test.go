package mretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultInitialBackoff, cfg.InitialBackoff)
	assert.Equal(t, DefaultMaxBackoff, cfg.MaxBackoff)
	assert.Equal(t, DefaultJitterFactor, cfg.JitterFactor)
}

func TestDefaultDeliveryConfig(t *testing.T) {
	cfg := DefaultDeliveryConfig()

	assert.Equal(t, DeliveryMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DeliveryInitialDelay, cfg.InitialBackoff)
	assert.Equal(t, DeliveryMaxBackoff, cfg.MaxBackoff)
}

func TestConfig_Chaining(t *testing.T) {
	cfg := DefaultConfig().
		WithMaxRetries(5).
		WithInitialBackoff(2 * time.Second).
		WithMaxBackoff(1 * time.Hour).
		WithJitterFactor(0.5)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.InitialBackoff)
	assert.Equal(t, 1*time.Hour, cfg.MaxBackoff)
	assert.Equal(t, 0.5, cfg.JitterFactor)

	// Setters copy; the original stays untouched.
	assert.Equal(t, DefaultMaxRetries, DefaultConfig().MaxRetries)
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := Config{
		InitialBackoff: time.Second,
		MaxBackoff:     8 * time.Second,
	}

	assert.Equal(t, time.Second, cfg.Backoff(0))
	assert.Equal(t, 2*time.Second, cfg.Backoff(1))
	assert.Equal(t, 4*time.Second, cfg.Backoff(2))
	assert.Equal(t, 8*time.Second, cfg.Backoff(3))
	assert.Equal(t, 8*time.Second, cfg.Backoff(10))
}

func TestBackoffJitterStaysBounded(t *testing.T) {
	cfg := Config{
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
		JitterFactor:   0.25,
	}

	for i := 0; i < 50; i++ {
		backoff := cfg.Backoff(2)

		assert.GreaterOrEqual(t, backoff, 3*time.Second)
		assert.LessOrEqual(t, backoff, 5*time.Second)
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	cfg := Config{MaxRetries: 5, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	calls := 0

	err := cfg.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}

		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetriable(t *testing.T) {
	cfg := Config{MaxRetries: 5, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	terminal := errors.New("terminal")
	calls := 0

	err := cfg.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return terminal
	}, func(err error) bool { return false })

	assert.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	transient := errors.New("transient")
	calls := 0

	err := cfg.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return transient
	}, func(err error) bool { return true })

	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)
}

func TestDoHonorsContextCancel(t *testing.T) {
	cfg := Config{MaxRetries: 10, InitialBackoff: time.Hour, MaxBackoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := cfg.Do(ctx, func(ctx context.Context) error {
		return errors.New("transient")
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
