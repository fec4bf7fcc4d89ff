package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"asset-forge/internal/config"
	"asset-forge/internal/interfaces/http/dto"
	"asset-forge/pkg/logger"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// KeyFunc 构造限流键
type KeyFunc func(c *gin.Context) string

// ClientIPKey 按客户端 IP 与路由限流
func ClientIPKey(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return "ratelimit:" + c.ClientIP() + ":" + path
}

// RateLimit 限流中间件，限流器故障时放行
func RateLimit(cfg config.RateLimitConfig, limiter RateLimiter, key KeyFunc) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	limit := cfg.RequestsPerSecond
	if limit <= 0 {
		limit = 100
	}
	if key == nil {
		key = ClientIPKey
	}

	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), key(c), limit, time.Second)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !allowed {
			dto.TooManyRequests(c)
			return
		}
		c.Next()
	}
}

// 空闲限流器的清理周期与过期时间
const (
	limiterSweepInterval = time.Minute
	limiterIdleTTL       = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter 进程内令牌桶限流，每个键一个 rate.Limiter
// 超过 limiterIdleTTL 未访问的键由后台协程清理
type LocalRateLimiter struct {
	mu       sync.Mutex
	burst    int
	visitors map[string]*visitor
	now      func() time.Time
}

// NewLocalRateLimiter 创建进程内限流器，ctx 结束时停止清理协程
func NewLocalRateLimiter(ctx context.Context, burst int) *LocalRateLimiter {
	l := &LocalRateLimiter{burst: burst, visitors: make(map[string]*visitor), now: time.Now}
	go l.sweep(ctx)
	return l
}

// Allow 令牌桶速率为 limit/window，容量为 burst（不小于 limit）
func (l *LocalRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		burst := max(l.burst, limit)
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	l.mu.Unlock()
	return v.limiter.Allow(), nil
}

// Len 当前跟踪的键数量
func (l *LocalRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *LocalRateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *LocalRateLimiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.visitors, key)
		}
	}
}
