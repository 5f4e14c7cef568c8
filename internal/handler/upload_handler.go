package handler

import (
	"net/http"

	"ai-studio-go/internal/middleware"
	"ai-studio-go/internal/service"
	"ai-studio-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UploadHandler 负责处理上下文附件的上传请求。
type UploadHandler struct {
	uploadService service.UploadService
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload 接收 multipart 表单中的 file 字段。
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file field is required"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Errorf("Upload: failed to open uploaded file, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	defer src.Close()

	userID := ""
	if user := middleware.CurrentUser(c); user != nil {
		userID = user.ID
	}

	contentType := fileHeader.Header.Get("Content-Type")
	result, err := h.uploadService.Upload(c.Request.Context(), userID, fileHeader.Filename, contentType, fileHeader.Size, src)
	if err != nil {
		log.Errorf("Upload: failed for '%s', error: %v", fileHeader.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
