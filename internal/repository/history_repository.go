package repository

import (
	"ai-studio-go/internal/model"

	"gorm.io/gorm"
)

// ChatRepository 定义了对话记录的持久化操作。
type ChatRepository interface {
	Create(chat *model.Chat) error
	FindByUserID(userID string) ([]model.Chat, error)
}

// ProjectRepository 定义了生成项目的持久化操作。
type ProjectRepository interface {
	Create(project *model.Project) error
	FindByUserID(userID string) ([]model.Project, error)
	FindByID(projectID string) (*model.Project, error)
}

// FileRepository 定义了上传文件元数据的持久化操作。
type FileRepository interface {
	Create(record *model.FileRecord) error
	FindByUserID(userID string) ([]model.FileRecord, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建一个新的 ChatRepository 实例。
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(chat *model.Chat) error {
	return r.db.Create(chat).Error
}

// FindByUserID 按创建时间倒序返回用户的对话记录。
func (r *chatRepository) FindByUserID(userID string) ([]model.Chat, error) {
	var chats []model.Chat
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&chats).Error
	return chats, err
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建一个新的 ProjectRepository 实例。
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(project *model.Project) error {
	return r.db.Create(project).Error
}

// FindByUserID 按创建时间倒序返回用户的项目。
func (r *projectRepository) FindByUserID(userID string) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) FindByID(projectID string) (*model.Project, error) {
	var project model.Project
	err := r.db.Where("id = ?", projectID).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository 创建一个新的 FileRepository 实例。
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(record *model.FileRecord) error {
	return r.db.Create(record).Error
}

// FindByUserID 按创建时间倒序返回用户上传的文件记录。
func (r *fileRepository) FindByUserID(userID string) ([]model.FileRecord, error) {
	var records []model.FileRecord
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&records).Error
	return records, err
}
