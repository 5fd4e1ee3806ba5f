package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_WithoutRedis_RejectsRequests(t *testing.T) {
	app := fiber.New()

	// No redis client configured - the limiter fails closed.
	app.Use(NewRateLimiter(RateLimitConfig{
		Max:         5,
		Expiration:  time.Minute,
		RedisClient: nil,
	}))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
}

func TestRateLimiter_EnforcesWindow(t *testing.T) {
	server := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	app := fiber.New()
	app.Use(NewRateLimiter(RateLimitConfig{
		Max:         3,
		Expiration:  time.Minute,
		RedisClient: client,
		KeyFunc: func(c *fiber.Ctx) string {
			return "tester"
		},
	}))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	server := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	app := fiber.New()
	app.Use(NewRateLimiter(RateLimitConfig{
		Max:         1,
		Expiration:  time.Second,
		RedisClient: client,
		KeyFunc: func(c *fiber.Ctx) string {
			return "tester"
		},
	}))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Advancing past the window admits requests again.
	server.FastForward(2 * time.Second)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimiter_IsolatesIdentities(t *testing.T) {
	server := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	app := fiber.New()
	app.Use(NewRateLimiter(RateLimitConfig{
		Max:         1,
		Expiration:  time.Minute,
		RedisClient: client,
		KeyFunc: func(c *fiber.Ctx) string {
			return c.Get("X-API-Key")
		},
	}))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	first := httptest.NewRequest(http.MethodGet, "/test", nil)
	first.Header.Set("X-API-Key", "alice")

	second := httptest.NewRequest(http.MethodGet, "/test", nil)
	second.Header.Set("X-API-Key", "bob")

	resp, err := app.Test(first, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(second, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	repeat := httptest.NewRequest(http.MethodGet, "/test", nil)
	repeat.Header.Set("X-API-Key", "alice")

	resp, err = app.Test(repeat, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
