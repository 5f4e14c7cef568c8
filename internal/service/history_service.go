package service

import (
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/repository"
)

// UserHistory 汇总了一个用户的全部历史记录。
type UserHistory struct {
	Chats    []model.Chat       `json:"chats"`
	Projects []model.Project    `json:"projects"`
	Files    []model.FileRecord `json:"files"`
}

// HistoryService 接口定义了历史记录查询操作。
type HistoryService interface {
	GetUserHistory(userID string) (*UserHistory, error)
	GetProject(projectID string) (*model.Project, error)
}

type historyService struct {
	chatRepo    repository.ChatRepository
	projectRepo repository.ProjectRepository
	fileRepo    repository.FileRepository
}

// NewHistoryService 创建一个新的 HistoryService 实例。
func NewHistoryService(chatRepo repository.ChatRepository, projectRepo repository.ProjectRepository, fileRepo repository.FileRepository) HistoryService {
	return &historyService{chatRepo: chatRepo, projectRepo: projectRepo, fileRepo: fileRepo}
}

func (s *historyService) GetUserHistory(userID string) (*UserHistory, error) {
	chats, err := s.chatRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	projects, err := s.projectRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	files, err := s.fileRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	return &UserHistory{Chats: chats, Projects: projects, Files: files}, nil
}

func (s *historyService) GetProject(projectID string) (*model.Project, error) {
	return s.projectRepo.FindByID(projectID)
}
