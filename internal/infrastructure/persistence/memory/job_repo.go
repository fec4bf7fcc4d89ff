// Package memory 提供进程内的任务存储
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
)

// JobRepository 内存任务仓储，所有访问持锁，读写均使用副本
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*entity.GenerationJob
}

// NewJobRepository 创建内存任务仓储
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[string]*entity.GenerationJob)}
}

// Create 创建任务
func (r *JobRepository) Create(_ context.Context, job *entity.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

// GetByID 根据 ID 获取任务
func (r *JobRepository) GetByID(_ context.Context, id string) (*entity.GenerationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	return job.Clone(), nil
}

// Update 更新任务
func (r *JobRepository) Update(_ context.Context, job *entity.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s does not exist", job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

// List 按创建时间倒序分页
func (r *JobRepository) List(_ context.Context, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	r.mu.RLock()
	matched := make([]*entity.GenerationJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		if filter != nil && filter.Status != "" && job.Status != filter.Status {
			continue
		}
		matched = append(matched, job)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	start := min(pagination.Offset(), len(matched))
	end := min(start+pagination.Limit(), len(matched))
	items := make([]*entity.GenerationJob, 0, end-start)
	for _, job := range matched[start:end] {
		items = append(items, job.Clone())
	}
	r.mu.RUnlock()

	return repository.NewPagedResult(items, total, pagination), nil
}

// GetJobStats 获取任务统计信息
func (r *JobRepository) GetJobStats(_ context.Context) (*repository.JobStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats repository.JobStats
	for _, job := range r.jobs {
		stats.Add(job.Status)
	}
	return &stats, nil
}

// Clear 清空所有任务
func (r *JobRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.jobs)
	return nil
}
