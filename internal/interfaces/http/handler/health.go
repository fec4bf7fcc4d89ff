package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"asset-forge/internal/interfaces/http/dto"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	checks  map[string]HealthChecker
	version string
}

// NewHealthHandler 创建健康检查处理器，checks 为就绪检查依赖，可为空
func NewHealthHandler(version string, checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks, version: version}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: h.version})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 依次检查任务存储与 Redis 等依赖
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := readinessResponse{Status: "ok", Checks: make(map[string]*readinessCheck, len(names))}
	for _, name := range names {
		start := time.Now()
		err := h.checks[name].HealthCheck(ctx)
		check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			check.Status = "error"
			check.Error = err.Error()
			resp.Status = "not_ready"
		}
		resp.Checks[name] = check
	}

	if resp.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Root API 信息
// @Summary 服务信息
// @Tags System
// @Produce json
// @Success 200 {object} dto.APIInfo
// @Router / [get]
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, dto.APIInfo{
		Message: "3D Asset Generation API",
		Version: h.version,
		Endpoints: map[string]string{
			"generate":   "POST /generate",
			"status":     "GET /status/{job_id}",
			"jobs":       "GET /jobs",
			"jobs_stats": "GET /jobs/stats",
			"assets":     "GET /assets/{job_id}/{file}",
			"health":     "GET /health",
			"test":       "GET /test",
		},
	})
}
