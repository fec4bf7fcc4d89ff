package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
)

// CachedJobRepository 为任务仓储加一层读缓存
// 只缓存终态任务，终态之后任务不再变化
type CachedJobRepository struct {
	repository.JobRepository
	cache  *Cache
	prefix string
	ttl    time.Duration
}

// NewCachedJobRepository 包装任务仓储
func NewCachedJobRepository(inner repository.JobRepository, cache *Cache, prefix string, ttl time.Duration) *CachedJobRepository {
	if prefix == "" {
		prefix = "asset"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedJobRepository{JobRepository: inner, cache: cache, prefix: prefix, ttl: ttl}
}

func (r *CachedJobRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:cache:job:%s", r.prefix, id)
}

// GetByID 先查缓存，未命中时回源
func (r *CachedJobRepository) GetByID(ctx context.Context, id string) (*entity.GenerationJob, error) {
	data, err := r.cache.ReadThrough(ctx, r.cacheKey(id), r.ttl, func(ctx context.Context) (any, bool, error) {
		job, err := r.JobRepository.GetByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return job, job != nil && job.Status.IsTerminal(), nil
	})
	if err != nil {
		return nil, err
	}

	var job *entity.GenerationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode cached job %s: %w", id, err)
	}
	return job, nil
}

// Update 写入后删除缓存
func (r *CachedJobRepository) Update(ctx context.Context, job *entity.GenerationJob) error {
	if err := r.JobRepository.Update(ctx, job); err != nil {
		return err
	}
	return r.cache.Delete(ctx, r.cacheKey(job.ID))
}

// Clear 清空任务与缓存
func (r *CachedJobRepository) Clear(ctx context.Context) error {
	if err := r.JobRepository.Clear(ctx); err != nil {
		return err
	}
	return r.cache.DeleteMatching(ctx, r.prefix+":cache:job:*")
}

var _ repository.JobRepository = (*CachedJobRepository)(nil)
