package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
)

// JobRepository 任务仓储实现
type JobRepository struct {
	client *Client
}

// NewJobRepository 创建任务仓储
func NewJobRepository(client *Client) *JobRepository {
	return &JobRepository{client: client}
}

// Create 创建任务
func (r *JobRepository) Create(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Create",
		trace.WithAttributes(attribute.String("job.id", job.ID)))
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(toJobModel(job)).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取任务
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetByID",
		trace.WithAttributes(attribute.String("job.id", id)))
	defer span.End()

	var m jobModel
	if err := r.client.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return m.toEntity(), nil
}

// Update 更新任务
func (r *JobRepository) Update(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Update",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("job.status", string(job.Status)),
		))
	defer span.End()

	// Select("*") 使零值字段同样写入
	res := r.client.db.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ?", job.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(toJobModel(job))
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %s not found", job.ID)
	}
	return nil
}

// List 按创建时间倒序分页
func (r *JobRepository) List(ctx context.Context, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.List")
	defer span.End()

	query := r.client.db.WithContext(ctx).Model(&jobModel{})
	if filter != nil && filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	// 获取列表
	var models []*jobModel
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&models).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*entity.GenerationJob, len(models))
	for i, m := range models {
		jobs[i] = m.toEntity()
	}
	return repository.NewPagedResult(jobs, total, pagination), nil
}

// GetJobStats 获取任务统计信息
func (r *JobRepository) GetJobStats(ctx context.Context) (*repository.JobStats, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetJobStats")
	defer span.End()

	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.client.db.WithContext(ctx).
		Model(&jobModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}

	stats := &repository.JobStats{}
	for _, row := range rows {
		switch entity.JobStatus(row.Status) {
		case entity.JobStatusPending:
			stats.PendingJobs = row.Count
		case entity.JobStatusRunning:
			stats.RunningJobs = row.Count
		case entity.JobStatusCompleted:
			stats.CompletedJobs = row.Count
		case entity.JobStatusFailed:
			stats.FailedJobs = row.Count
		}
		stats.TotalJobs += row.Count
	}
	return stats, nil
}

// Clear 删除全部任务
func (r *JobRepository) Clear(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Clear")
	defer span.End()

	res := r.client.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&jobModel{})
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to clear jobs: %w", res.Error)
	}
	span.SetAttributes(attribute.Int64("job.cleared", res.RowsAffected))
	return nil
}

var _ repository.JobRepository = (*JobRepository)(nil)
