package middleware

import (
	"context"
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

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCheckRateLimit(t *testing.T) {
	t.Parallel()
	rdb := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "events", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "call %d should pass", i+1)
	}

	allowed, err := CheckRateLimit(ctx, rdb, "events", "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = CheckRateLimit(ctx, rdb, "events", "user:2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "limits are per id")
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	t.Parallel()
	_, err := CheckRateLimit(context.Background(), nil, "events", "user:1", 1, time.Minute)
	assert.ErrorIs(t, err, ErrNoRateLimitStore)
}

func rateLimitedApp(rdb *redis.Client, limit int, policy FailPolicy) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(ActorLocal, int64(5))
		return c.Next()
	})
	app.Post("/events", RateLimit(rdb, limit, time.Minute, "events", policy), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRateLimit_Middleware(t *testing.T) {
	t.Parallel()

	t.Run("blocks after limit", func(t *testing.T) {
		app := rateLimitedApp(newTestRedis(t), 1, FailOpen)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/events", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/events", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	})

	t.Run("fail open without redis", func(t *testing.T) {
		app := rateLimitedApp(nil, 1, FailOpen)
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/events", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("fail closed without redis", func(t *testing.T) {
		app := rateLimitedApp(nil, 1, FailClosed)
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/events", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("zero limit disables", func(t *testing.T) {
		app := rateLimitedApp(nil, 0, FailClosed)
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/events", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
