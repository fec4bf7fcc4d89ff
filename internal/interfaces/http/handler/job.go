package handler

import (
	"github.com/gin-gonic/gin"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
	"asset-forge/internal/interfaces/http/dto"
)

// JobHandler 任务处理器
type JobHandler struct {
	svc JobService
}

// NewJobHandler 创建任务处理器
func NewJobHandler(svc JobService) *JobHandler {
	return &JobHandler{svc: svc}
}

// GetStatus 获取任务详情
// @Summary 获取任务状态
// @Tags Jobs
// @Produce json
// @Param job_id path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /status/{job_id} [get]
func (h *JobHandler) GetStatus(c *gin.Context) {
	job, err := h.svc.Get(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToJobResponse(job))
}

// ListJobs 分页列出任务
// @Summary 任务列表
// @Tags Jobs
// @Produce json
// @Param status query string false "状态过滤"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[dto.JobListResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	pageReq := dto.BindPage(c)

	var filter *repository.JobFilter
	if status := c.Query("status"); status != "" {
		filter = &repository.JobFilter{Status: entity.JobStatus(status)}
	}

	result, err := h.svc.List(c.Request.Context(), filter, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		dto.FromError(c, err)
		return
	}

	meta := dto.NewPageMeta(result.Page, result.PageSize, result.Total)
	dto.SuccessWithPage(c, dto.ToJobListResponse(result.Items), meta)
}

// Stats 各状态任务数
// @Summary 任务统计
// @Tags Jobs
// @Produce json
// @Success 200 {object} dto.Response[dto.JobStatsResponse]
// @Router /jobs/stats [get]
func (h *JobHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToJobStatsResponse(stats))
}
