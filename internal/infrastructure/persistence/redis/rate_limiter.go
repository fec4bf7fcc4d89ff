package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// slidingWindow 清理窗口外成员后按计数决定是否写入本次请求
// KEYS[1] 限流键；ARGV: now_ms, window_ms, limit, member
var slidingWindow = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[3]) then
  return {0, count}
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window * 2)
return {1, count + 1}
`)

// RateLimiter 滑动窗口限流器，多个 API 实例共享计数
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 原子地检查并记录一次请求
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow", trace.WithAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
	))
	defer span.End()

	now := time.Now().UnixMilli()
	res, err := slidingWindow.Run(ctx, l.client.rdb, []string{key},
		now, window.Milliseconds(), limit, strconv.FormatInt(now, 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	allowed := res[0] == 1
	span.SetAttributes(
		attribute.Bool("ratelimit.allowed", allowed),
		attribute.Int64("ratelimit.count", res[1]),
	)
	return allowed, nil
}

// Remaining 窗口内剩余配额
func (l *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	since := time.Now().Add(-window).UnixMilli()
	count, err := l.client.rdb.ZCount(ctx, key, "("+strconv.FormatInt(since, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count rate limit window: %w", err)
	}
	return max(limit-int(count), 0), nil
}

// Reset 重置限流计数
func (l *RateLimiter) Reset(ctx context.Context, key string) error {
	return l.client.rdb.Del(ctx, key).Err()
}

// BuildRateLimitKey 构建限流键
func BuildRateLimitKey(clientID, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", clientID, endpoint)
}
