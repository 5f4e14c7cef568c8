package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"ai-studio-go/internal/config"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/repository"
	"ai-studio-go/pkg/llm"
	"ai-studio-go/pkg/log"
	"ai-studio-go/pkg/tasks"

	"github.com/google/uuid"
)

// buildKeywords 中任一关键词出现在用户最新消息里，说明用户想让助手动手生成网站。
var buildKeywords = []string{"build", "create", "website", "app"}

// ChatReply 是一次对话调用的结果。
// IsWebsiteRequest 为 true 时 Content 为空，前端应切换到生成面板。
type ChatReply struct {
	Content          string `json:"content"`
	IsWebsiteRequest bool   `json:"isWebsiteRequest"`
}

// ChatService 接口定义了对话相关的业务操作。
type ChatService interface {
	// Respond 处理一次非流式对话请求。
	// 最新一条消息表达建站意图时直接短路返回，不调用模型。
	Respond(ctx context.Context, userID, modelName string, messages []model.ChatMessage) (*ChatReply, error)
	// StreamRespond 以流式方式处理对话，增量内容通过 writer 推送。
	// 会话历史保存在 Redis 中滚动维护，跨连接延续。
	StreamRespond(ctx context.Context, userID, content string, writer llm.MessageWriter) error
}

type chatService struct {
	client           llm.Client
	conversationRepo repository.ConversationRepository
	publish          func(tasks.HistoryEvent) error
}

// NewChatService 创建一个新的 ChatService 实例。
// publish 可为 nil，此时对话不会进入异步历史管道。
func NewChatService(client llm.Client, conversationRepo repository.ConversationRepository, publish func(tasks.HistoryEvent) error) ChatService {
	return &chatService{client: client, conversationRepo: conversationRepo, publish: publish}
}

func (s *chatService) Respond(ctx context.Context, userID, modelName string, messages []model.ChatMessage) (*ChatReply, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages must not be empty")
	}

	// 意图判定只看最新一条用户消息，命中时短路返回
	last := messages[len(messages)-1]
	if detectBuildIntent(last.Content) {
		return &ChatReply{IsWebsiteRequest: true}, nil
	}

	llmMessages := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		llmMessages = append(llmMessages, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := s.client.Chat(ctx, llmMessages, modelName)
	if err != nil {
		if errors.Is(err, llm.ErrRateLimited) {
			return nil, ErrRateLimited
		}
		return nil, err
	}

	s.publishChat(userID, modelName, append(messages, model.ChatMessage{Role: "assistant", Content: reply}))

	return &ChatReply{Content: reply}, nil
}

func (s *chatService) StreamRespond(ctx context.Context, userID, content string, writer llm.MessageWriter) error {
	// 1. 取得该用户的会话并加载滚动历史
	conversationID, err := s.conversationRepo.GetOrCreateConversationID(ctx, userID)
	if err != nil {
		return err
	}
	history, err := s.conversationRepo.GetConversationHistory(ctx, conversationID)
	if err != nil {
		return err
	}

	history = append(history, model.ChatMessage{Role: "user", Content: content})

	llmMessages := make([]llm.Message, 0, len(history))
	for _, m := range history {
		llmMessages = append(llmMessages, llm.Message{Role: m.Role, Content: m.Content})
	}

	// 2. 流式生成，同时把完整回复累积下来用于写回历史
	collector := &collectingWriter{inner: writer}
	if err := s.client.ChatStream(ctx, llmMessages, "", collector); err != nil {
		return err
	}

	// 3. 写回滚动历史并投递历史事件
	history = append(history, model.ChatMessage{Role: "assistant", Content: collector.buf.String()})
	if err := s.conversationRepo.UpdateConversationHistory(ctx, conversationID, history); err != nil {
		log.Errorf("[ChatService] 更新会话历史失败, conversation: %s, error: %v", conversationID, err)
	}
	s.publishChat(userID, "", history)
	return nil
}

func (s *chatService) publishChat(userID, modelName string, messages []model.ChatMessage) {
	if s.publish == nil || userID == "" {
		return
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		log.Errorf("[ChatService] 序列化对话消息失败, error: %v", err)
		return
	}
	event := tasks.HistoryEvent{
		EventID:      uuid.NewString(),
		Kind:         tasks.KindChat,
		UserID:       userID,
		ModelUsed:    resolveModelName(modelName),
		MessagesJSON: string(messagesJSON),
	}
	if err := s.publish(event); err != nil {
		log.Errorf("[ChatService] 投递对话历史事件失败, error: %v", err)
	}
}

// resolveModelName 把空模型名解析为当前提供方的默认模型。
func resolveModelName(modelName string) string {
	if modelName != "" {
		return modelName
	}
	switch llm.Provider(config.Conf.LLM.Provider) {
	case llm.ProviderOpenAI:
		return config.Conf.LLM.OpenAI.DefaultModel
	default:
		return config.Conf.LLM.Gemini.DefaultModel
	}
}

// detectBuildIntent 判断消息是否表达了生成网站的意图。
func detectBuildIntent(content string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range buildKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// collectingWriter 在透传流式分片的同时累积完整文本。
type collectingWriter struct {
	inner llm.MessageWriter
	buf   strings.Builder
}

func (w *collectingWriter) WriteMessage(messageType int, data []byte) error {
	w.buf.Write(data)
	return w.inner.WriteMessage(messageType, data)
}
