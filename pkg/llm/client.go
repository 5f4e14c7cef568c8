// Package llm provides clients for interacting with Large Language Models.
package llm

import (
	"context"
	"errors"
	"fmt"

	"ai-studio-go/internal/config"
)

// Provider 标识生成后端的具体实现。
// 取值在启动时由配置解析一次，调用期不再根据模型名猜测实现。
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// 生成调用的哨兵错误，由 handler 层映射为面向用户的提示。
var (
	// ErrRateLimited 表示上游返回了限流信号（HTTP 429 等价）。
	ErrRateLimited = errors.New("generation backend rate limit exceeded")
	// ErrEmptyResponse 表示上游调用成功但没有返回任何文本。
	ErrEmptyResponse = errors.New("generation backend returned empty response")
)

// Message 表示一条角色消息。
type Message struct {
	Role    string `json:"role"` // "system"、"user" 或 "assistant"
	Content string `json:"content"`
}

// ContextFile 是附加到生成请求的用户上下文文件。
type ContextFile struct {
	Name          string
	MimeType      string
	Base64Content string
}

// MessageWriter defines an interface for writing streamed chunks.
// This allows both a standard websocket.Conn and an interceptor to be used.
type MessageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Client defines the interface for a generation backend client.
type Client interface {
	// Chat 以 role-based 消息调用对话接口并返回完整回复文本。
	Chat(ctx context.Context, messages []Message, model string) (string, error)
	// ChatStream 调用对话接口并把流式分块写入 writer。
	ChatStream(ctx context.Context, messages []Message, model string, writer MessageWriter) error
	// GenerateWebsite 请求模型生成多文件网站项目，返回未经解析的原始文本。
	// 文本的解析与校验由 generation 包负责。
	GenerateWebsite(ctx context.Context, prompt string, files []ContextFile, model string) (string, error)
}

// NewClient 根据配置中的 provider 创建对应的 LLM 客户端。
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch Provider(cfg.Provider) {
	case ProviderGemini:
		return newGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
