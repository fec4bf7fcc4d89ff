package job

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
	"asset-forge/pkg/errors"
	"asset-forge/pkg/logger"
	"asset-forge/pkg/metrics"
	"asset-forge/pkg/tracer"
)

// Queue 异步任务队列
type Queue interface {
	Enqueue(ctx context.Context, jobID string) error
}

// Service 任务服务
type Service struct {
	repo     repository.JobRepository
	executor *Executor
	queue    Queue
}

// NewService 创建任务服务
func NewService(repo repository.JobRepository, executor *Executor, queue Queue) *Service {
	return &Service{repo: repo, executor: executor, queue: queue}
}

// Submit 校验并创建任务；sync 时在当前请求内执行完毕再返回
func (s *Service) Submit(ctx context.Context, req entity.GenerationRequest, sync bool) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "job.Submit")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	job := entity.NewGenerationJob(uuid.NewString(), req)
	span.SetAttributes(
		attribute.String("job.id", job.ID),
		attribute.Bool("job.sync", sync),
	)
	ctx = logger.WithContext(ctx, logger.JobIDKey, job.ID)

	if err := s.repo.Create(ctx, job); err != nil {
		span.RecordError(err)
		return nil, errors.ErrDatabase.WithError(err)
	}

	mode := "async"
	if sync {
		mode = "sync"
	}
	metrics.JobsSubmitted.WithLabelValues(mode).Inc()
	logger.Info(ctx, "job submitted", "mode", mode, "prompt", req.Prompt, "seed", req.Seed, "steps", req.Steps)

	if sync {
		if err := s.executor.Process(ctx, job.ID); err != nil {
			return nil, err
		}
		return s.Get(ctx, job.ID)
	}

	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		span.RecordError(err)
		job.Fail(errors.Describe(errors.ErrQueue.WithError(err)))
		if uerr := s.repo.Update(ctx, job); uerr != nil {
			logger.Error(ctx, "failed to mark unqueued job failed", uerr)
		}
		return nil, errors.ErrQueue.WithError(err)
	}
	return job, nil
}

// Get 查询任务，不存在时返回 ErrJobNotFound
func (s *Service) Get(ctx context.Context, id string) (*entity.GenerationJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabase.WithError(err)
	}
	if job == nil {
		return nil, errors.ErrJobNotFound.WithDetail(id)
	}
	return job, nil
}

// List 分页列出任务
func (s *Service) List(ctx context.Context, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	if filter != nil && filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.InvalidParam("unknown status %q", filter.Status)
	}
	page, err := s.repo.List(ctx, filter, pagination)
	if err != nil {
		return nil, errors.ErrDatabase.WithError(err)
	}
	return page, nil
}

// Stats 任务统计
func (s *Service) Stats(ctx context.Context) (*repository.JobStats, error) {
	stats, err := s.repo.GetJobStats(ctx)
	if err != nil {
		return nil, errors.ErrDatabase.WithError(err)
	}
	return stats, nil
}
