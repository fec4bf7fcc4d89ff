// Package entity 定义领域实体
package entity

import (
	"time"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal 是否为终态
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid 是否为已知状态
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// GenerationJob 生成任务
type GenerationJob struct {
	ID           string            `json:"job_id"`
	Request      GenerationRequest `json:"request"`
	Status       JobStatus         `json:"status"`
	Result       *GenerationResult `json:"result,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
	DurationMs   int64             `json:"duration_ms,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// NewGenerationJob 创建新任务
func NewGenerationJob(id string, req GenerationRequest) *GenerationJob {
	now := time.Now().UTC()
	return &GenerationJob{
		ID:        id,
		Request:   req,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start 开始执行任务
func (j *GenerationJob) Start() {
	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
}

// Complete 完成任务
func (j *GenerationJob) Complete(result *GenerationResult) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.Result = result
	j.CompletedAt = &now
	j.UpdatedAt = now
	if j.StartedAt != nil {
		j.DurationMs = now.Sub(*j.StartedAt).Milliseconds()
	}
}

// Fail 任务失败，失败为终态，不重试
func (j *GenerationJob) Fail(errMsg string) {
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.CompletedAt = &now
	j.UpdatedAt = now
	if j.StartedAt != nil {
		j.DurationMs = now.Sub(*j.StartedAt).Milliseconds()
	}
}

// Clone 深拷贝，存储层返回副本避免共享可变状态
func (j *GenerationJob) Clone() *GenerationJob {
	if j == nil {
		return nil
	}
	cp := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	if j.Result != nil {
		cp.Result = j.Result.Clone()
	}
	return &cp
}

// GenerationResult 生成结果，完成后不再修改
type GenerationResult struct {
	JobID     string            `json:"job_id"`
	Shape     ShapeKind         `json:"shape"`
	Modifiers []Modifier        `json:"modifiers,omitempty"`
	Mesh      *Mesh             `json:"-"`
	Metrics   *MeshMetrics      `json:"metrics"`
	Quality   *QualityReport    `json:"quality,omitempty"`
	LODs      map[string]int    `json:"lods,omitempty"`
	Files     map[string]string `json:"files"`
}

// Clone 拷贝结果，网格与指标为只读共享
func (r *GenerationResult) Clone() *GenerationResult {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Modifiers = append([]Modifier(nil), r.Modifiers...)
	if r.Files != nil {
		cp.Files = make(map[string]string, len(r.Files))
		for k, v := range r.Files {
			cp.Files[k] = v
		}
	}
	if r.LODs != nil {
		cp.LODs = make(map[string]int, len(r.LODs))
		for k, v := range r.LODs {
			cp.LODs[k] = v
		}
	}
	return &cp
}
