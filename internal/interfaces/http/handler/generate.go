package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"asset-forge/internal/config"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/interfaces/http/dto"
	"asset-forge/pkg/logger"
)

// /test 使用的固定参数
const (
	SmokePrompt        = "test cube"
	SmokeSeed          = 42
	SmokeSteps         = entity.MinSteps
	SmokeGuidanceScale = entity.MinGuidanceScale
)

// GenerateHandler 生成处理器
type GenerateHandler struct {
	svc      JobService
	defaults config.GenerationConfig
	smoke    singleflight.Group
}

// NewGenerateHandler 创建生成处理器
func NewGenerateHandler(svc JobService, cfg *config.Config) *GenerateHandler {
	return &GenerateHandler{svc: svc, defaults: cfg.Generation}
}

// Generate 提交生成任务
// @Summary 提交生成任务
// @Description 异步提交返回 202；sync=true 时在请求内执行完毕并返回 200
// @Tags Generation
// @Accept json
// @Produce json
// @Param body body dto.GenerateRequest true "生成参数"
// @Success 200 {object} dto.Response[dto.GenerateResponse]
// @Success 202 {object} dto.Response[dto.GenerateResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /generate [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	var body dto.GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	job, err := h.svc.Submit(c.Request.Context(), body.ToEntity(h.defaults), body.Sync)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	resp := dto.ToGenerateResponse(job)
	if body.Sync {
		dto.Success(c, resp)
		return
	}
	dto.Accepted(c, resp)
}

// Test 以固定参数同步生成 "test cube"，并发请求共享同一次生成
// @Summary 冒烟测试
// @Tags System
// @Produce json
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Router /test [get]
func (h *GenerateHandler) Test(c *gin.Context) {
	// 调用方断开不应中断共享的生成
	ctx := context.WithoutCancel(c.Request.Context())
	v, err, shared := h.smoke.Do("test", func() (any, error) {
		req := entity.GenerationRequest{
			Prompt:        SmokePrompt,
			Seed:          SmokeSeed,
			Steps:         SmokeSteps,
			GuidanceScale: SmokeGuidanceScale,
		}
		return h.svc.Submit(ctx, req, true)
	})
	if err != nil {
		dto.FromError(c, err)
		return
	}

	job := v.(*entity.GenerationJob)
	logger.Debug(c.Request.Context(), "smoke generation finished", "job_id", job.ID, "shared", shared)
	if job.Status != entity.JobStatusCompleted {
		c.JSON(http.StatusInternalServerError, dto.Response[*dto.JobResponse]{
			Code:    http.StatusInternalServerError,
			Message: "smoke generation failed",
			Data:    dto.ToJobResponse(job),
			TraceID: c.GetString("trace_id"),
		})
		return
	}
	dto.Success(c, dto.ToJobResponse(job))
}
