package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ai-studio-go/internal/config"

	"github.com/gorilla/websocket"
	openai "github.com/sashabaranov/go-openai"
)

// openaiClient 通过 OpenAI 兼容接口调用生成后端。
// 网站生成走自由 JSON 模式：请求 json_object 输出，
// 围栏等会话包装由下游解析器防御性剥离。
type openaiClient struct {
	cfg    config.LLMConfig
	client *openai.Client
}

func newOpenAIClient(cfg config.LLMConfig) *openaiClient {
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}
	return &openaiClient{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}
}

func (c *openaiClient) modelName(model string) string {
	if model != "" {
		return model
	}
	return c.cfg.OpenAI.DefaultModel
}

func (c *openaiClient) applyGenerationParams(req *openai.ChatCompletionRequest) {
	if c.cfg.Generation.Temperature != 0 {
		req.Temperature = float32(c.cfg.Generation.Temperature)
	}
	if c.cfg.Generation.TopP != 0 {
		req.TopP = float32(c.cfg.Generation.TopP)
	}
	if c.cfg.Generation.MaxTokens != 0 {
		req.MaxTokens = c.cfg.Generation.MaxTokens
	}
}

// GenerateWebsite 请求一个完整的网站文件集。
// 上下文附件以纯文本形式拼接进用户轮次。
func (c *openaiClient) GenerateWebsite(ctx context.Context, prompt string, files []ContextFile, model string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName(model),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemInstruction()},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(prompt) + renderTextAttachments(files)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	c.applyGenerationParams(&req)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Chat 透传消息历史到对话接口。
func (c *openaiClient) Chat(ctx context.Context, messages []Message, model string) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("chat requires at least one message")
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	req := openai.ChatCompletionRequest{
		Model:    c.modelName(model),
		Messages: msgs,
	}
	c.applyGenerationParams(&req)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatStream 以流式方式返回对话回复，逐分块写入 writer。
func (c *openaiClient) ChatStream(ctx context.Context, messages []Message, model string, writer MessageWriter) error {
	if len(messages) == 0 {
		return errors.New("chat requires at least one message")
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	req := openai.ChatCompletionRequest{
		Model:    c.modelName(model),
		Messages: msgs,
		Stream:   true,
	}
	c.applyGenerationParams(&req)

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return mapOpenAIError(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return mapOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if chunk := resp.Choices[0].Delta.Content; chunk != "" {
			if err := writer.WriteMessage(websocket.TextMessage, []byte(chunk)); err != nil {
				return fmt.Errorf("failed to write stream chunk: %w", err)
			}
		}
	}
}

// mapOpenAIError 将 SDK 错误映射到包级哨兵错误。
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	}
	return fmt.Errorf("openai generate: %w", err)
}
