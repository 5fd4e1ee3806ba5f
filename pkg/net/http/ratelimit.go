package http

import (
	"time"

	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig parameterizes the redis-backed request limiter.
type RateLimitConfig struct {
	// Max requests per identity per window.
	Max int
	// Expiration is the window size.
	Expiration time.Duration
	// RedisClient backs the counters. Nil fails closed.
	RedisClient *redis.Client
	// KeyFunc derives the identity key. Defaults to the client IP.
	KeyFunc func(c *fiber.Ctx) string
}

// NewRateLimiter returns a fixed-window limiter keyed per identity. The limiter
// fails closed: when redis is unreachable requests are refused, not admitted.
func NewRateLimiter(cfg RateLimitConfig) fiber.Handler {
	if cfg.Max <= 0 {
		cfg.Max = 60
	}

	if cfg.Expiration <= 0 {
		cfg.Expiration = time.Minute
	}

	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *fiber.Ctx) string {
			return c.IP()
		}
	}

	return func(c *fiber.Ctx) error {
		if cfg.RedisClient == nil {
			return ServiceUnavailable(c, cn.ErrRateLimitUnavailable.Error(), "The admission control backend is unavailable; requests are refused until it recovers.")
		}

		ctx := c.UserContext()
		key := "ratelimit:" + keyFunc(c)

		count, err := cfg.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			return ServiceUnavailable(c, cn.ErrRateLimitUnavailable.Error(), "The admission control backend is unavailable; requests are refused until it recovers.")
		}

		if count == 1 {
			cfg.RedisClient.Expire(ctx, key, cfg.Expiration)
		}

		if count > int64(cfg.Max) {
			ttl, err := cfg.RedisClient.TTL(ctx, key).Result()
			retryAfter := int(cfg.Expiration / time.Second)

			if err == nil && ttl > 0 {
				retryAfter = int(ttl / time.Second)
			}

			if retryAfter < 1 {
				retryAfter = 1
			}

			return TooManyRequests(c, cn.ErrRateLimited.Error(), "Too many requests in the current window. Please wait before retrying.", retryAfter)
		}

		return c.Next()
	}
}
