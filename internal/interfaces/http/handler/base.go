// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
)

// JobService 处理器依赖的任务服务
type JobService interface {
	Submit(ctx context.Context, req entity.GenerationRequest, sync bool) (*entity.GenerationJob, error)
	Get(ctx context.Context, id string) (*entity.GenerationJob, error)
	List(ctx context.Context, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error)
	Stats(ctx context.Context) (*repository.JobStats, error)
}

// ArtifactResolver 解析任务产物路径
type ArtifactResolver interface {
	ArtifactPath(jobID, name string) (string, error)
}

// HealthChecker 可做健康检查的依赖
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
