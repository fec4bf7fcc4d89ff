// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"asset-forge/internal/config"
	"asset-forge/internal/interfaces/http/handler"
	"asset-forge/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Generate *handler.GenerateHandler
	Job      *handler.JobHandler
	Asset    *handler.AssetHandler
	Health   *handler.HealthHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
	limiter  middleware.RateLimiter
	limitKey middleware.KeyFunc
}

// Option 路由选项
type Option func(*Router)

// WithRateLimiter 设置限流器与限流键
func WithRateLimiter(limiter middleware.RateLimiter, key middleware.KeyFunc) Option {
	return func(r *Router) {
		r.limiter = limiter
		r.limitKey = key
	}
}

// New 创建新的路由器
func New(cfg *config.Config, handlers Handlers, opts ...Option) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.cfg.Security.CORS))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	h := r.handlers

	r.engine.GET("/", h.Health.Root)
	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	api := r.engine.Group("")
	api.Use(middleware.RateLimit(r.cfg.Security.RateLimit, r.limiter, r.limitKey))
	RegisterRoutes(api, h)
}
