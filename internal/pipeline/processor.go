// Package pipeline 实现了历史事件的异步落库流程。
// 对话与生成项目先写入 Kafka，由消费者在这里完成持久化与索引。
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-studio-go/internal/config"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/repository"
	"ai-studio-go/pkg/es"
	"ai-studio-go/pkg/log"
	"ai-studio-go/pkg/tasks"
)

// Processor 消费历史事件并写入 MySQL 与 Elasticsearch。
type Processor struct {
	chatRepo    repository.ChatRepository
	projectRepo repository.ProjectRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(chatRepo repository.ChatRepository, projectRepo repository.ProjectRepository) *Processor {
	return &Processor{chatRepo: chatRepo, projectRepo: projectRepo}
}

// Process 处理单条历史事件。返回 error 会触发消费端的有限重试。
func (p *Processor) Process(ctx context.Context, event tasks.HistoryEvent) error {
	switch event.Kind {
	case tasks.KindChat:
		return p.processChat(event)
	case tasks.KindProject:
		return p.processProject(ctx, event)
	default:
		// 未知事件直接丢弃，重试也不会变得可处理
		log.Warnf("[Pipeline] 丢弃未知事件类型: %s, event: %s", event.Kind, event.EventID)
		return nil
	}
}

func (p *Processor) processChat(event tasks.HistoryEvent) error {
	chat := &model.Chat{
		ID:        event.EventID,
		UserID:    event.UserID,
		Messages:  event.MessagesJSON,
		ModelUsed: event.ModelUsed,
	}
	if err := p.chatRepo.Create(chat); err != nil {
		return fmt.Errorf("failed to persist chat %s: %w", event.EventID, err)
	}
	return nil
}

func (p *Processor) processProject(ctx context.Context, event tasks.HistoryEvent) error {
	project := &model.Project{
		ID:     event.EventID,
		UserID: event.UserID,
		Prompt: event.Prompt,
		Files:  event.FilesJSON,
	}
	if err := p.projectRepo.Create(project); err != nil {
		return fmt.Errorf("failed to persist project %s: %w", event.EventID, err)
	}

	// 索引失败只记录不重试，避免重复落库
	if err := es.IndexProject(ctx, config.Conf.Elasticsearch.IndexName, es.ProjectDocument{
		ProjectID: event.EventID,
		UserID:    event.UserID,
		Prompt:    event.Prompt,
		Content:   searchableContent(event.FilesJSON),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Errorf("[Pipeline] 索引项目失败, project: %s, error: %v", event.EventID, err)
	}
	return nil
}

// searchableContent 把文件 JSON 展平为可全文检索的纯文本。
func searchableContent(filesJSON string) string {
	var files []model.ProjectFile
	if err := json.Unmarshal([]byte(filesJSON), &files); err != nil {
		return ""
	}
	var sb []byte
	for _, f := range files {
		sb = append(sb, f.Path...)
		sb = append(sb, '\n')
		sb = append(sb, f.Content...)
		sb = append(sb, '\n')
	}
	return string(sb)
}
