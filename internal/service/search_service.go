package service

import (
	"context"

	"ai-studio-go/internal/config"
	"ai-studio-go/pkg/es"
)

// SearchService 接口定义了项目全文检索操作。
type SearchService interface {
	SearchProjects(ctx context.Context, userID, query string, size int) ([]es.ProjectDocument, error)
}

type searchService struct{}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService() SearchService {
	return &searchService{}
}

func (s *searchService) SearchProjects(ctx context.Context, userID, query string, size int) ([]es.ProjectDocument, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	return es.SearchProjects(ctx, config.Conf.Elasticsearch.IndexName, userID, query, size)
}
