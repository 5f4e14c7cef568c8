package service

import (
	"context"
	"errors"
	"time"

	"ai-studio-go/internal/config"
	"ai-studio-go/internal/generation"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/repository"
	"ai-studio-go/pkg/llm"
	"ai-studio-go/pkg/log"
	"ai-studio-go/pkg/tasks"

	"github.com/google/uuid"
)

// 生成相关的业务错误。
var (
	// ErrGenerationInFlight 表示同一会话已有一次生成在进行中。
	ErrGenerationInFlight = errors.New("a generation is already in progress for this session")
	// ErrRateLimited 表示上游模型返回了限流错误。
	ErrRateLimited = errors.New("rate limit exceeded, retry later")
)

// GenerationService 接口定义了网站生成的业务操作。
type GenerationService interface {
	// Generate 根据提示词与可选附件生成一套网站文件。
	// sessionKey 用于并发去重：同一会话同一时间只允许一次生成。
	// modelName 为空时使用提供方配置的默认模型。
	Generate(ctx context.Context, sessionKey, userID, prompt, modelName string, attachments []model.UploadedFile) (*model.FileSet, error)
}

type generationService struct {
	client  llm.Client
	lock    repository.GenerationLock
	publish func(tasks.HistoryEvent) error
}

// NewGenerationService 创建一个新的 GenerationService 实例。
// publish 可为 nil，此时生成结果不会进入异步历史管道。
func NewGenerationService(client llm.Client, lock repository.GenerationLock, publish func(tasks.HistoryEvent) error) GenerationService {
	return &generationService{client: client, lock: lock, publish: publish}
}

func (s *generationService) Generate(ctx context.Context, sessionKey, userID, prompt, modelName string, attachments []model.UploadedFile) (*model.FileSet, error) {
	timeout := time.Duration(config.Conf.LLM.Generation.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	// 1. 会话级单飞锁，防止同一用户重复触发生成
	// 锁 TTL 略长于生成超时，即使进程崩溃锁也会自动过期
	acquired, err := s.lock.Acquire(ctx, sessionKey, timeout+10*time.Second)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrGenerationInFlight
	}
	defer func() {
		if err := s.lock.Release(context.Background(), sessionKey); err != nil {
			log.Errorf("[GenerationService] 释放生成锁失败, session: %s, error: %v", sessionKey, err)
		}
	}()

	// 2. 带超时调用模型
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	contextFiles := make([]llm.ContextFile, 0, len(attachments))
	for _, f := range attachments {
		contextFiles = append(contextFiles, llm.ContextFile{
			Name:          f.Name,
			MimeType:      f.MimeType,
			Base64Content: f.Base64Content,
		})
	}

	raw, err := s.client.GenerateWebsite(genCtx, prompt, contextFiles, modelName)
	if err != nil {
		if errors.Is(err, llm.ErrRateLimited) {
			return nil, ErrRateLimited
		}
		return nil, err
	}

	// 3. 解析为文件集。解析是全函数，格式异常会降级为 error.txt
	fileSet := generation.ParseFileSet(raw)

	// 4. 异步写入历史（尽力而为，失败不影响本次响应）
	s.publishProject(userID, prompt, modelName, fileSet)

	return fileSet, nil
}

func (s *generationService) publishProject(userID, prompt, modelName string, fileSet *model.FileSet) {
	if s.publish == nil || userID == "" {
		return
	}
	filesJSON, err := fileSet.MarshalFiles()
	if err != nil {
		log.Errorf("[GenerationService] 序列化生成文件失败, error: %v", err)
		return
	}
	event := tasks.HistoryEvent{
		EventID:   uuid.NewString(),
		Kind:      tasks.KindProject,
		UserID:    userID,
		ModelUsed: resolveModelName(modelName),
		Prompt:    prompt,
		FilesJSON: filesJSON,
	}
	if err := s.publish(event); err != nil {
		log.Errorf("[GenerationService] 投递项目历史事件失败, error: %v", err)
	}
}
