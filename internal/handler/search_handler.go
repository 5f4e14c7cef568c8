package handler

import (
	"net/http"
	"strconv"

	"ai-studio-go/internal/middleware"
	"ai-studio-go/internal/service"
	"ai-studio-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 负责处理项目全文检索请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 在当前用户的历史项目中做全文检索。
// GET /api/v1/projects/search?q=...&size=...
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A q query parameter is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	user := middleware.CurrentUser(c)
	docs, err := h.searchService.SearchProjects(c.Request.Context(), user.ID, query, size)
	if err != nil {
		log.Errorf("Search: failed for user '%s', error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": docs})
}
