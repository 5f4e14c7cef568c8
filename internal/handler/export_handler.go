package handler

import (
	"net/http"

	"ai-studio-go/internal/model"
	"ai-studio-go/pkg/archive"
	"ai-studio-go/pkg/log"
	"ai-studio-go/pkg/preview"

	"github.com/gin-gonic/gin"
)

// ExportHandler 负责把生成的文件集打包下载，以及拼装预览文档。
type ExportHandler struct{}

// NewExportHandler 创建一个新的 ExportHandler 实例。
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// FileSetRequest 定义了携带文件集的请求体结构。
type FileSetRequest struct {
	Files []model.ProjectFile `json:"files" binding:"required"`
}

// Export 把文件集打包为 ZIP 返回。空文件集返回 400。
func (h *ExportHandler) Export(c *gin.Context) {
	var req FileSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A files array is required"})
		return
	}

	data, err := archive.BuildZip(req.Files)
	if err != nil {
		if err == archive.ErrEmptyFileSet {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No files to export"})
			return
		}
		log.Errorf("Export: failed to build archive, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=project.zip")
	c.Data(http.StatusOK, "application/zip", data)
}

// Preview 把文件集拼装成单个可直接渲染的 HTML 文档。
func (h *ExportHandler) Preview(c *gin.Context) {
	var req FileSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A files array is required"})
		return
	}

	doc := preview.Assemble(model.FileSetFromFiles(req.Files))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}
