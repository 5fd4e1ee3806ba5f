package mretry

import (
	"context"
	"math/rand"
	"time"
)

// Defaults shared by every retry schedule in the component.
const (
	DefaultMaxRetries     = 10
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 30 * time.Minute
	DefaultJitterFactor   = 0.25
	DeliveryMaxRetries    = 5
	DeliveryInitialDelay  = 2 * time.Second
	DeliveryMaxBackoff    = 2 * time.Minute
)

// Config parameterizes a retry schedule: attempts, backoff growth and jitter.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFactor   float64
}

// DefaultConfig returns the schedule used for backend I/O.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		JitterFactor:   DefaultJitterFactor,
	}
}

// DefaultDeliveryConfig returns the bounded schedule used for webhook redelivery.
func DefaultDeliveryConfig() Config {
	return Config{
		MaxRetries:     DeliveryMaxRetries,
		InitialBackoff: DeliveryInitialDelay,
		MaxBackoff:     DeliveryMaxBackoff,
		JitterFactor:   DefaultJitterFactor,
	}
}

// WithMaxRetries returns a copy of the config with MaxRetries set.
func (c Config) WithMaxRetries(n int) Config {
	c.MaxRetries = n
	return c
}

// WithInitialBackoff returns a copy of the config with InitialBackoff set.
func (c Config) WithInitialBackoff(d time.Duration) Config {
	c.InitialBackoff = d
	return c
}

// WithMaxBackoff returns a copy of the config with MaxBackoff set.
func (c Config) WithMaxBackoff(d time.Duration) Config {
	c.MaxBackoff = d
	return c
}

// WithJitterFactor returns a copy of the config with JitterFactor set.
func (c Config) WithJitterFactor(f float64) Config {
	c.JitterFactor = f
	return c
}

// Backoff returns the delay before the given attempt (0-based), exponentially grown
// from InitialBackoff, capped at MaxBackoff, with ±JitterFactor jitter applied.
func (c Config) Backoff(attempt int) time.Duration {
	backoff := c.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= c.MaxBackoff {
			backoff = c.MaxBackoff
			break
		}
	}

	if c.JitterFactor > 0 {
		jitter := 1 + c.JitterFactor*(2*rand.Float64()-1)
		backoff = time.Duration(float64(backoff) * jitter)
	}

	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}

// Retriable decides whether an error is worth another attempt.
type Retriable func(err error) bool

// Do runs fn up to MaxRetries+1 times, sleeping Backoff(attempt) between attempts.
// A non-retriable error, a nil error, or a done context stops the loop immediately.
func (c Config) Do(ctx context.Context, fn func(ctx context.Context) error, retriable Retriable) error {
	var err error

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if retriable != nil && !retriable(err) {
			return err
		}

		if attempt == c.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Backoff(attempt)):
		}
	}

	return err
}
