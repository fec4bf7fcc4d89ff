package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/config"
	"asset-forge/internal/infrastructure/persistence/redis"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, stderrors.New("redis down")
}

func newEngine(cfg config.RateLimitConfig, limiter RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.Use(RateLimit(cfg, limiter, nil))
	e.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return e
}

func hit(e *gin.Engine) int {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	return w.Code
}

func TestRateLimitDisabled(t *testing.T) {
	e := newEngine(config.RateLimitConfig{Enabled: false, RequestsPerSecond: 1}, NewLocalRateLimiter(t.Context(), 1))
	for range 5 {
		assert.Equal(t, http.StatusOK, hit(e))
	}
}

func TestRateLimitLocal(t *testing.T) {
	e := newEngine(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 2, Burst: 2}, NewLocalRateLimiter(t.Context(), 2))
	assert.Equal(t, http.StatusOK, hit(e))
	assert.Equal(t, http.StatusOK, hit(e))
	assert.Equal(t, http.StatusTooManyRequests, hit(e))
}

func TestRateLimitRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	limiter := redis.NewRateLimiter(redis.NewClientFromRedis(rdb))

	e := newEngine(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 2}, limiter)
	assert.Equal(t, http.StatusOK, hit(e))
	assert.Equal(t, http.StatusOK, hit(e))
	assert.Equal(t, http.StatusTooManyRequests, hit(e))
}

func TestRateLimitFailsOpen(t *testing.T) {
	e := newEngine(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1}, brokenLimiter{})
	require.Equal(t, http.StatusOK, hit(e))
	require.Equal(t, http.StatusOK, hit(e))
}

func TestClientIPKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/jobs", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "ratelimit:10.0.0.1:/jobs", ClientIPKey(c))
}

func TestLocalRateLimiterEvictsIdleKeys(t *testing.T) {
	ctx := t.Context()
	l := NewLocalRateLimiter(ctx, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		allowed, err := l.Allow(ctx, key, 1, time.Second)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	require.Equal(t, 3, l.Len())

	now = now.Add(2 * time.Minute)
	_, _ = l.Allow(ctx, "b", 1, time.Second)

	now = now.Add(2 * time.Minute)
	l.evictIdle()
	assert.Equal(t, 1, l.Len())

	// 被清理的键重新获得完整令牌
	allowed, err := l.Allow(ctx, "a", 1, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}
