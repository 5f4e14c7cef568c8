package handler

import (
	"errors"
	"net/http"

	"ai-studio-go/internal/middleware"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/service"
	"ai-studio-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// GenerateHandler 负责处理网站生成的 API 请求。
type GenerateHandler struct {
	generationService service.GenerationService
}

// NewGenerateHandler 创建一个新的 GenerateHandler 实例。
func NewGenerateHandler(generationService service.GenerationService) *GenerateHandler {
	return &GenerateHandler{generationService: generationService}
}

// GenerateRequest 定义了生成 API 的请求体结构。
// Model 可选，缺省时使用配置的默认模型。
type GenerateRequest struct {
	Prompt string               `json:"prompt" binding:"required"`
	Model  string               `json:"model"`
	Files  []model.UploadedFile `json:"files"`
}

// Generate 处理一次网站生成请求，返回 {"files": [...]}。
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A prompt is required"})
		return
	}

	// 单飞锁以登录用户为粒度，匿名请求退化为按客户端 IP
	userID := ""
	sessionKey := c.ClientIP()
	if user := middleware.CurrentUser(c); user != nil {
		userID = user.ID
		sessionKey = user.ID
	}

	fileSet, err := h.generationService.Generate(c.Request.Context(), sessionKey, userID, req.Prompt, req.Model, req.Files)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGenerationInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, retry later"})
		default:
			log.Errorf("Generate: failed, error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": fileSet.Files()})
}
