// Package job 生成任务的提交、执行与排队
package job

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
	"asset-forge/pkg/errors"
	"asset-forge/pkg/logger"
	"asset-forge/pkg/metrics"
	"asset-forge/pkg/tracer"
)

// AssetGenerator 执行一次资产生成
type AssetGenerator interface {
	Generate(ctx context.Context, jobID string, req entity.GenerationRequest) (*entity.GenerationResult, error)
}

// Executor 执行单个任务并维护其状态流转
type Executor struct {
	repo      repository.JobRepository
	generator AssetGenerator
}

// NewExecutor 创建任务执行器
func NewExecutor(repo repository.JobRepository, generator AssetGenerator) *Executor {
	return &Executor{repo: repo, generator: generator}
}

// Process 执行任务：pending → running → completed | failed
// 生成失败记录在任务上，不作为错误返回；只有存储错误会返回
func (e *Executor) Process(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "job.Process")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", id))
	ctx = logger.WithContext(ctx, logger.JobIDKey, id)

	job, err := e.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return errors.ErrDatabase.WithError(err)
	}
	if job == nil {
		return errors.ErrJobNotFound.WithDetail(id)
	}
	if job.Status != entity.JobStatusPending {
		logger.Warn(ctx, "skipping job that is not pending", "status", job.Status)
		return nil
	}

	job.Start()
	if err := e.repo.Update(ctx, job); err != nil {
		span.RecordError(err)
		return errors.ErrDatabase.WithError(err)
	}

	metrics.JobsInFlight.Inc()
	result, genErr := e.generate(ctx, job)
	metrics.JobsInFlight.Dec()

	if genErr != nil {
		span.RecordError(genErr)
		job.Fail(errors.Describe(genErr))
		logger.Error(ctx, "job failed", genErr, "duration_ms", job.DurationMs)
	} else {
		job.Complete(result)
		logger.Info(ctx, "job completed", "duration_ms", job.DurationMs)
	}
	span.SetAttributes(attribute.String("job.status", string(job.Status)))

	if err := e.repo.Update(ctx, job); err != nil {
		span.RecordError(err)
		return errors.ErrDatabase.WithError(err)
	}
	return nil
}

// generate 调用生成器，panic 转为任务失败
func (e *Executor) generate(ctx context.Context, job *entity.GenerationJob) (result *entity.GenerationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "generation panicked", nil, "panic", r, "stack", string(debug.Stack()))
			err = errors.ErrGenerationFailed.WithDetail(fmt.Sprintf("panic: %v", r))
		}
	}()
	return e.generator.Generate(ctx, job.ID, job.Request)
}
