package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Loader 缓存未命中时的回源函数，cacheable 为 false 时结果不写入缓存
type Loader func(ctx context.Context) (value any, cacheable bool, err error)

// Cache JSON 读缓存
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// Get 读取缓存值，未命中时返回 redis.Nil
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "cache.Get",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Bytes()
	span.SetAttributes(attribute.Bool("cache.hit", err == nil))
	if err != nil && !IsNil(err) {
		span.RecordError(err)
	}
	return val, err
}

// ReadThrough 命中直接返回，未命中时同一 key 只回源一次
// 缓存读写失败都不影响回源结果
func (c *Cache) ReadThrough(ctx context.Context, key string, ttl time.Duration, load Loader) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "cache.ReadThrough",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if val, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return val, nil
	} else if !IsNil(err) {
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err, shared := c.group.Do(key, func() (any, error) {
		value, cacheable, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal cached value: %w", err)
		}
		if cacheable {
			if err := c.client.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
				span.RecordError(err)
			}
		}
		return data, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return v.([]byte), nil
}

// Delete 删除缓存
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.client.rdb.Del(ctx, keys...).Err()
}

// DeleteMatching 按 SCAN 模式批量删除
func (c *Cache) DeleteMatching(ctx context.Context, pattern string) error {
	ctx, span := tracer.Start(ctx, "cache.DeleteMatching",
		trace.WithAttributes(attribute.String("cache.pattern", pattern)))
	defer span.End()

	var keys []string
	iter := c.client.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	span.SetAttributes(attribute.Int("cache.deleted", len(keys)))
	if len(keys) == 0 {
		return nil
	}
	return c.client.rdb.Del(ctx, keys...).Err()
}
