package dto

import (
	"time"

	"github.com/jinzhu/copier"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
	"asset-forge/pkg/logger"
)

// GenerateResponse 提交任务响应
type GenerateResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ParametersResponse 生成参数
type ParametersResponse struct {
	Seed          int64   `json:"seed"`
	Steps         int     `json:"steps"`
	GuidanceScale float64 `json:"guidance_scale"`
}

// JobResponse 任务状态响应
type JobResponse struct {
	JobID       string                `json:"job_id"`
	Status      string                `json:"status"`
	Prompt      string                `json:"prompt"`
	Parameters  ParametersResponse    `json:"parameters"`
	Shape       string                `json:"shape,omitempty"`
	Modifiers   []string              `json:"modifiers,omitempty"`
	Files       map[string]string     `json:"files,omitempty"`
	Metrics     *entity.MeshMetrics   `json:"metrics,omitempty"`
	Quality     *entity.QualityReport `json:"quality,omitempty"`
	LODs        map[string]int        `json:"lods,omitempty"`
	Error       string                `json:"error,omitempty"`
	DurationMs  int64                 `json:"duration_ms,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// JobListResponse 任务列表响应
type JobListResponse struct {
	Jobs []*JobResponse `json:"jobs"`
}

// JobStatsResponse 任务统计响应
type JobStatsResponse struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// ToGenerateResponse 提交结果
func ToGenerateResponse(j *entity.GenerationJob) *GenerateResponse {
	resp := &GenerateResponse{JobID: j.ID, Status: string(j.Status)}
	switch j.Status {
	case entity.JobStatusPending:
		resp.Message = "Generation job queued"
	case entity.JobStatusCompleted:
		resp.Message = "Asset generated successfully"
	case entity.JobStatusFailed:
		resp.Message = "Generation failed: " + j.ErrorMessage
	default:
		resp.Message = "Generation in progress"
	}
	return resp
}

// ToJobResponse 将领域实体转换为响应 DTO
func ToJobResponse(j *entity.GenerationJob) *JobResponse {
	if j == nil {
		return nil
	}

	resp := &JobResponse{}
	// 同名字段：Status/DurationMs/时间戳
	if err := copier.Copy(resp, j); err != nil {
		logger.Default().Warn("failed to copy job fields", "job_id", j.ID, "error", err)
		resp.Status = string(j.Status)
		resp.DurationMs = j.DurationMs
		resp.CreatedAt, resp.UpdatedAt = j.CreatedAt, j.UpdatedAt
		resp.StartedAt, resp.CompletedAt = j.StartedAt, j.CompletedAt
	}
	if err := copier.Copy(&resp.Parameters, &j.Request); err != nil {
		logger.Default().Warn("failed to copy job parameters", "job_id", j.ID, "error", err)
		resp.Parameters = ParametersResponse{Seed: j.Request.Seed, Steps: j.Request.Steps, GuidanceScale: j.Request.GuidanceScale}
	}
	resp.JobID = j.ID
	resp.Prompt = j.Request.Prompt
	resp.Error = j.ErrorMessage

	if r := j.Result; r != nil {
		resp.Shape = string(r.Shape)
		for _, m := range r.Modifiers {
			resp.Modifiers = append(resp.Modifiers, string(m))
		}
		resp.Files = r.Files
		resp.Metrics = r.Metrics
		resp.Quality = r.Quality
		resp.LODs = r.LODs
	}
	return resp
}

// ToJobListResponse 将领域实体列表转换为响应 DTO
func ToJobListResponse(jobs []*entity.GenerationJob) *JobListResponse {
	resp := &JobListResponse{
		Jobs: make([]*JobResponse, 0, len(jobs)),
	}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, ToJobResponse(j))
	}
	return resp
}

// ToJobStatsResponse 统计转换
func ToJobStatsResponse(s *repository.JobStats) *JobStatsResponse {
	return &JobStatsResponse{
		Total:     s.TotalJobs,
		Pending:   s.PendingJobs,
		Running:   s.RunningJobs,
		Completed: s.CompletedJobs,
		Failed:    s.FailedJobs,
	}
}

// APIInfo 根路径返回的服务信息
type APIInfo struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
