package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
)

var jobStatuses = []entity.JobStatus{
	entity.JobStatusPending,
	entity.JobStatusRunning,
	entity.JobStatusCompleted,
	entity.JobStatusFailed,
}

// JobRepository 任务仓储
// 每个任务一个 JSON 文档，另维护按创建时间排序的全量索引和按状态划分的索引
type JobRepository struct {
	client *Client
	prefix string
}

// NewJobRepository 创建任务仓储
func NewJobRepository(client *Client, prefix string) *JobRepository {
	if prefix == "" {
		prefix = "asset"
	}
	return &JobRepository{client: client, prefix: prefix}
}

func (r *JobRepository) jobKey(id string) string {
	return fmt.Sprintf("%s:job:%s", r.prefix, id)
}

func (r *JobRepository) indexKey() string {
	return r.prefix + ":jobs"
}

func (r *JobRepository) statusKey(status entity.JobStatus) string {
	return fmt.Sprintf("%s:jobs:status:%s", r.prefix, status)
}

// Create 创建任务
func (r *JobRepository) Create(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "redis.JobRepository.Create",
		trace.WithAttributes(attribute.String("job.id", job.ID)))
	defer span.End()

	data, err := json.Marshal(job)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ok, err := r.client.rdb.SetNX(ctx, r.jobKey(job.ID), data, 0).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create job: %w", err)
	}
	if !ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}

	score := float64(job.CreatedAt.UnixNano())
	_, err = r.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: score, Member: job.ID})
		pipe.ZAdd(ctx, r.statusKey(job.Status), redis.Z{Score: score, Member: job.ID})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to index job: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取任务
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "redis.JobRepository.GetByID",
		trace.WithAttributes(attribute.String("job.id", id)))
	defer span.End()

	data, err := r.client.rdb.Get(ctx, r.jobKey(id)).Bytes()
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job entity.GenerationJob
	if err := json.Unmarshal(data, &job); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return &job, nil
}

// Update 更新任务，并将其移动到新状态的索引
func (r *JobRepository) Update(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "redis.JobRepository.Update",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("job.status", string(job.Status)),
		))
	defer span.End()

	data, err := json.Marshal(job)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ok, err := r.client.rdb.SetXX(ctx, r.jobKey(job.ID), data, 0).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update job: %w", err)
	}
	if !ok {
		return fmt.Errorf("job %s not found", job.ID)
	}

	score := float64(job.CreatedAt.UnixNano())
	_, err = r.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range jobStatuses {
			if s != job.Status {
				pipe.ZRem(ctx, r.statusKey(s), job.ID)
			}
		}
		pipe.ZAdd(ctx, r.statusKey(job.Status), redis.Z{Score: score, Member: job.ID})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to reindex job: %w", err)
	}
	return nil
}

// List 按创建时间倒序分页
func (r *JobRepository) List(ctx context.Context, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	ctx, span := tracer.Start(ctx, "redis.JobRepository.List")
	defer span.End()

	key := r.indexKey()
	if filter != nil && filter.Status != "" {
		key = r.statusKey(filter.Status)
	}

	total, err := r.client.rdb.ZCard(ctx, key).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	start := int64(pagination.Offset())
	stop := start + int64(pagination.Limit()) - 1
	ids, err := r.client.rdb.ZRevRange(ctx, key, start, stop).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs, err := r.load(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return repository.NewPagedResult(jobs, total, pagination), nil
}

func (r *JobRepository) load(ctx context.Context, ids []string) ([]*entity.GenerationJob, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.jobKey(id)
	}
	values, err := r.client.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}

	jobs := make([]*entity.GenerationJob, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// 文档已删除但索引尚未清理
			continue
		}
		var job entity.GenerationJob
		if err := json.Unmarshal([]byte(s), &job); err != nil {
			return nil, fmt.Errorf("failed to decode job %s: %w", ids[i], err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

// GetJobStats 统计各状态任务数
func (r *JobRepository) GetJobStats(ctx context.Context) (*repository.JobStats, error) {
	ctx, span := tracer.Start(ctx, "redis.JobRepository.GetJobStats")
	defer span.End()

	pipe := r.client.rdb.Pipeline()
	totalCmd := pipe.ZCard(ctx, r.indexKey())
	counts := make(map[entity.JobStatus]*redis.IntCmd, len(jobStatuses))
	for _, s := range jobStatuses {
		counts[s] = pipe.ZCard(ctx, r.statusKey(s))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}

	return &repository.JobStats{
		TotalJobs:     totalCmd.Val(),
		PendingJobs:   counts[entity.JobStatusPending].Val(),
		RunningJobs:   counts[entity.JobStatusRunning].Val(),
		CompletedJobs: counts[entity.JobStatusCompleted].Val(),
		FailedJobs:    counts[entity.JobStatusFailed].Val(),
	}, nil
}

// Clear 删除全部任务与索引
func (r *JobRepository) Clear(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.JobRepository.Clear")
	defer span.End()

	ids, err := r.client.rdb.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to read job index: %w", err)
	}

	keys := make([]string, 0, len(ids)+len(jobStatuses)+1)
	for _, id := range ids {
		keys = append(keys, r.jobKey(id))
	}
	keys = append(keys, r.indexKey())
	for _, s := range jobStatuses {
		keys = append(keys, r.statusKey(s))
	}

	const batch = 500
	for start := 0; start < len(keys); start += batch {
		end := min(start+batch, len(keys))
		if err := r.client.rdb.Del(ctx, keys[start:end]...).Err(); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to clear jobs: %w", err)
		}
	}
	span.SetAttributes(attribute.Int("job.cleared", len(ids)))
	return nil
}

var _ repository.JobRepository = (*JobRepository)(nil)
