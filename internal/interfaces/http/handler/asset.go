package handler

import (
	"os"

	"github.com/gin-gonic/gin"

	"asset-forge/internal/interfaces/http/dto"
	"asset-forge/pkg/errors"
)

// AssetHandler 产物文件处理器
type AssetHandler struct {
	resolver ArtifactResolver
}

// NewAssetHandler 创建产物文件处理器
func NewAssetHandler(resolver ArtifactResolver) *AssetHandler {
	return &AssetHandler{resolver: resolver}
}

// Serve 下载任务产物
// @Summary 下载产物
// @Tags Assets
// @Param job_id path string true "任务 ID"
// @Param file path string true "文件名"
// @Success 200 {file} file
// @Failure 404 {object} dto.ErrorResponse
// @Router /assets/{job_id}/{file} [get]
func (h *AssetHandler) Serve(c *gin.Context) {
	name := c.Param("file")
	path, err := h.resolver.ArtifactPath(dto.BindJobID(c), name)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		dto.FromError(c, errors.ErrFileNotFound.WithDetail(name))
		return
	}
	c.FileAttachment(path, name)
}
