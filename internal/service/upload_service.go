package service

import (
	"context"
	"fmt"
	"io"

	"ai-studio-go/internal/config"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/repository"
	"ai-studio-go/pkg/log"
	"ai-studio-go/pkg/storage"

	"github.com/google/uuid"
)

// UploadResult 是一次上传的出参，回显给前端做附件展示。
type UploadResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// UploadService 接口定义了上下文附件的上传操作。
type UploadService interface {
	// Upload 把附件写入对象存储，并为登录用户记录元数据。
	// 存储失败不阻断请求，附件仍可随本次生成内联使用。
	Upload(ctx context.Context, userID, filename, contentType string, size int64, reader io.Reader) (*UploadResult, error)
}

type uploadService struct {
	fileRepo repository.FileRepository
}

// NewUploadService 创建一个新的 UploadService 实例。
func NewUploadService(fileRepo repository.FileRepository) UploadService {
	return &uploadService{fileRepo: fileRepo}
}

func (s *uploadService) Upload(ctx context.Context, userID, filename, contentType string, size int64, reader io.Reader) (*UploadResult, error) {
	objectName := fmt.Sprintf("uploads/%s_%s", uuid.NewString(), filename)

	storagePath, err := storage.PutObject(ctx, config.Conf.MinIO.BucketName, objectName, reader, size, contentType)
	if err != nil {
		// 对象存储是尽力而为的归档，失败降级为仅回显
		log.Errorf("[UploadService] 写入对象存储失败, file: %s, error: %v", filename, err)
		storagePath = ""
	}

	if userID != "" && storagePath != "" {
		record := &model.FileRecord{
			ID:          uuid.NewString(),
			UserID:      userID,
			Filename:    filename,
			StoragePath: storagePath,
			Size:        size,
			ContentType: contentType,
		}
		if err := s.fileRepo.Create(record); err != nil {
			log.Errorf("[UploadService] 保存文件元数据失败, file: %s, error: %v", filename, err)
		}
	}

	return &UploadResult{Success: true, Filename: filename, Size: size, Type: contentType}, nil
}
