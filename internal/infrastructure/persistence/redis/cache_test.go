package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/domain/entity"
)

func TestCacheReadThrough(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCache(client)
	ctx := context.Background()

	var calls atomic.Int32
	loader := func(context.Context) (any, bool, error) {
		calls.Add(1)
		return map[string]int{"faces": 320}, true, nil
	}

	data, err := cache.ReadThrough(ctx, "k", time.Minute, loader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"faces":320}`, string(data))
	assert.True(t, mr.Exists("k"))

	_, err = cache.ReadThrough(ctx, "k", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, cache.Delete(ctx, "k"))
	_, err = cache.Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestCacheSkipsUncacheable(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCache(client)

	_, err := cache.ReadThrough(context.Background(), "pending", time.Minute, func(context.Context) (any, bool, error) {
		return "running", false, nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("pending"))
}

func TestCachedJobRepositoryCachesTerminalJobsOnly(t *testing.T) {
	mr, client := setupTestRedis(t)
	inner := NewJobRepository(client, "store")
	repo := NewCachedJobRepository(inner, NewCache(client), "store", time.Minute)
	ctx := context.Background()

	job := newJob("j1", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, job))

	got, err := repo.GetByID(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPending, got.Status)
	assert.False(t, mr.Exists("store:cache:job:j1"))

	job.Start()
	job.Complete(&entity.GenerationResult{JobID: "j1", Shape: entity.ShapeCube})
	require.NoError(t, repo.Update(ctx, job))

	got, err = repo.GetByID(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, got.Status)
	assert.True(t, mr.Exists("store:cache:job:j1"))

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Clear(ctx))
	assert.False(t, mr.Exists("store:cache:job:j1"))
}

func TestRateLimiter(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()
	key := BuildRateLimitKey("10.0.0.1", "/generate")
	assert.Equal(t, "ratelimit:10.0.0.1:/generate", key)

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := limiter.Remaining(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	require.NoError(t, limiter.Reset(ctx, key))
	remaining, err = limiter.Remaining(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}

func TestRateLimiterConcurrent(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := limiter.Allow(ctx, "ratelimit:c", 100, time.Minute); err == nil && ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(5), allowed.Load())
}

func TestRateLimiterNeverOverAdmits(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := limiter.Allow(ctx, "ratelimit:burst", 10, time.Minute); err == nil && ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(10), allowed.Load())
}
