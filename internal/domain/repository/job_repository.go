package repository

import (
	"context"

	"asset-forge/internal/domain/entity"
)

// JobFilter 任务过滤条件
type JobFilter struct {
	Status entity.JobStatus
}

// JobRepository 生成任务仓储接口
// 实现需保证单次访问互斥，返回的任务为副本
type JobRepository interface {
	// Create 创建任务，ID 已存在时返回错误
	Create(ctx context.Context, job *entity.GenerationJob) error

	// GetByID 根据 ID 获取任务，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.GenerationJob, error)

	// Update 覆盖写入任务
	Update(ctx context.Context, job *entity.GenerationJob) error

	// List 按创建时间倒序分页
	List(ctx context.Context, filter *JobFilter, pagination Pagination) (*PagedResult[*entity.GenerationJob], error)

	// GetJobStats 获取任务统计信息
	GetJobStats(ctx context.Context) (*JobStats, error)

	// Clear 清空所有任务，进程退出时调用
	Clear(ctx context.Context) error
}

// JobStats 任务统计信息
type JobStats struct {
	TotalJobs     int64 `json:"total_jobs"`
	PendingJobs   int64 `json:"pending_jobs"`
	RunningJobs   int64 `json:"running_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
}

// Add 按状态累加一个任务
func (s *JobStats) Add(status entity.JobStatus) {
	s.TotalJobs++
	switch status {
	case entity.JobStatusPending:
		s.PendingJobs++
	case entity.JobStatusRunning:
		s.RunningJobs++
	case entity.JobStatusCompleted:
		s.CompletedJobs++
	case entity.JobStatusFailed:
		s.FailedJobs++
	}
}
