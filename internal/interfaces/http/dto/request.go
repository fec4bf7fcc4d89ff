// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"asset-forge/internal/config"
	"asset-forge/internal/domain/entity"
)

// PageRequest 分页请求参数
type PageRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Normalize 规范化分页参数
func (r *PageRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = 20
	}
	if r.PageSize > 100 {
		r.PageSize = 100
	}
}

// BindPage 从 Gin Context 绑定分页参数
func BindPage(c *gin.Context) PageRequest {
	req := PageRequest{
		Page:     parseIntWithDefault(c.Query("page"), 1),
		PageSize: parseIntWithDefault(c.Query("page_size"), 20),
	}
	req.Normalize()
	return req
}

// parseIntWithDefault 解析整数，失败时返回默认值
func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// BindJobID 从 URI 绑定任务 ID
func BindJobID(c *gin.Context) string {
	return c.Param("job_id")
}

// GenerateRequest 生成请求，可选参数缺省时取配置默认值
type GenerateRequest struct {
	Prompt        string   `json:"prompt"`
	Seed          *int64   `json:"seed,omitempty"`
	Steps         *int     `json:"steps,omitempty"`
	GuidanceScale *float64 `json:"guidance_scale,omitempty"`
	// Sync 为 true 时在请求内执行完毕
	Sync bool `json:"sync,omitempty"`
}

// ToEntity 填充默认值并转换为领域请求，不做范围校验
func (r *GenerateRequest) ToEntity(defaults config.GenerationConfig) entity.GenerationRequest {
	req := entity.GenerationRequest{
		Prompt:        r.Prompt,
		Seed:          defaults.DefaultSeed,
		Steps:         defaults.DefaultSteps,
		GuidanceScale: defaults.DefaultGuidanceScale,
	}
	if r.Seed != nil {
		req.Seed = *r.Seed
	}
	if r.Steps != nil {
		req.Steps = *r.Steps
	}
	if r.GuidanceScale != nil {
		req.GuidanceScale = *r.GuidanceScale
	}
	return req
}
