package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册业务路由
func RegisterRoutes(g *gin.RouterGroup, h Handlers) {
	g.POST("/generate", h.Generate.Generate)
	g.GET("/test", h.Generate.Test)
	g.GET("/status/:job_id", h.Job.GetStatus)

	jobs := g.Group("/jobs")
	{
		jobs.GET("", h.Job.ListJobs)
		jobs.GET("/stats", h.Job.Stats)
	}

	g.GET("/assets/:job_id/:file", h.Asset.Serve)
}
