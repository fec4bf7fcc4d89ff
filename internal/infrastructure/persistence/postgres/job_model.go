package postgres

import (
	"time"

	"asset-forge/internal/domain/entity"
)

// jobModel generation_jobs 表
type jobModel struct {
	ID            string                   `gorm:"primaryKey;type:varchar(64)"`
	Prompt        string                   `gorm:"type:text;not null"`
	Seed          int64                    `gorm:"not null"`
	Steps         int                      `gorm:"not null"`
	GuidanceScale float64                  `gorm:"not null"`
	Status        string                   `gorm:"type:varchar(16);not null;index"`
	ErrorMessage  string                   `gorm:"type:text"`
	Result        *entity.GenerationResult `gorm:"type:text;serializer:json"`
	DurationMs    int64
	CreatedAt     time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// TableName 表名
func (jobModel) TableName() string {
	return "generation_jobs"
}

func toJobModel(job *entity.GenerationJob) *jobModel {
	return &jobModel{
		ID:            job.ID,
		Prompt:        job.Request.Prompt,
		Seed:          job.Request.Seed,
		Steps:         job.Request.Steps,
		GuidanceScale: job.Request.GuidanceScale,
		Status:        string(job.Status),
		ErrorMessage:  job.ErrorMessage,
		Result:        job.Result,
		DurationMs:    job.DurationMs,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
	}
}

func (m *jobModel) toEntity() *entity.GenerationJob {
	return &entity.GenerationJob{
		ID: m.ID,
		Request: entity.GenerationRequest{
			Prompt:        m.Prompt,
			Seed:          m.Seed,
			Steps:         m.Steps,
			GuidanceScale: m.GuidanceScale,
		},
		Status:       entity.JobStatus(m.Status),
		Result:       m.Result,
		ErrorMessage: m.ErrorMessage,
		DurationMs:   m.DurationMs,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
		StartedAt:    utcPtr(m.StartedAt),
		CompletedAt:  utcPtr(m.CompletedAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
