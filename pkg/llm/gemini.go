package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"ai-studio-go/internal/config"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/gorilla/websocket"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// geminiClient 通过官方 genai SDK 调用 Gemini。
// 网站生成走 schema 约束模式：要求响应严格匹配 {files:[{path,content}]}，
// 以降低下游解析失败的概率。
type geminiClient struct {
	cfg    config.LLMConfig
	client *genai.Client
}

func newGeminiClient(ctx context.Context, cfg config.LLMConfig) (*geminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &geminiClient{cfg: cfg, client: client}, nil
}

// fileSetSchema 是网站生成响应的 JSON Schema（标准线缆形状）。
var fileSetSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"files": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"path": {
						Type:        genai.TypeString,
						Description: `The root-relative path of the file (e.g., "index.html").`,
					},
					"content": {
						Type:        genai.TypeString,
						Description: "The full content of the file.",
					},
				},
				Required: []string{"path", "content"},
			},
		},
	},
	Required: []string{"files"},
}

func (c *geminiClient) modelName(model string) string {
	if model != "" {
		return model
	}
	return c.cfg.Gemini.DefaultModel
}

// applyGenerationParams 从配置注入生成参数（若非零值）。
func (c *geminiClient) applyGenerationParams(m *genai.GenerativeModel) {
	if c.cfg.Generation.Temperature != 0 {
		m.SetTemperature(float32(c.cfg.Generation.Temperature))
	}
	if c.cfg.Generation.TopP != 0 {
		m.SetTopP(float32(c.cfg.Generation.TopP))
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m.SetMaxOutputTokens(int32(c.cfg.Generation.MaxTokens))
	}
}

// GenerateWebsite 以 schema 约束模式请求一个完整的网站文件集。
func (c *geminiClient) GenerateWebsite(ctx context.Context, prompt string, files []ContextFile, model string) (string, error) {
	m := c.client.GenerativeModel(c.modelName(model))
	m.GenerationConfig.ResponseMIMEType = "application/json"
	m.GenerationConfig.ResponseSchema = fileSetSchema
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemInstruction())}}
	c.applyGenerationParams(m)

	parts := []genai.Part{genai.Text(UserPrompt(prompt))}
	if len(files) > 0 {
		parts = append(parts, genai.Text(attachmentHeader))
		for _, f := range files {
			parts = append(parts, genai.Text(fmt.Sprintf("\nFile: %s\n", f.Name)))
			raw, err := base64.StdEncoding.DecodeString(f.Base64Content)
			if err != nil {
				// 附件内容损坏时退化为名称标记，不中断整次生成
				continue
			}
			parts = append(parts, genai.Blob{MIMEType: f.MimeType, Data: raw})
		}
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", mapGeminiError(err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Chat 将消息历史映射到 Gemini 的多轮会话接口。
func (c *geminiClient) Chat(ctx context.Context, messages []Message, model string) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("chat requires at least one message")
	}
	m := c.client.GenerativeModel(c.modelName(model))
	c.applyGenerationParams(m)

	cs := m.StartChat()
	for _, msg := range messages[:len(messages)-1] {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(messages[len(messages)-1].Content))
	if err != nil {
		return "", mapGeminiError(err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ChatStream 以流式方式返回对话回复，逐分块写入 writer。
func (c *geminiClient) ChatStream(ctx context.Context, messages []Message, model string, writer MessageWriter) error {
	if len(messages) == 0 {
		return errors.New("chat requires at least one message")
	}
	m := c.client.GenerativeModel(c.modelName(model))
	c.applyGenerationParams(m)

	cs := m.StartChat()
	for _, msg := range messages[:len(messages)-1] {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	iter := cs.SendMessageStream(ctx, genai.Text(messages[len(messages)-1].Content))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return mapGeminiError(err)
		}
		if chunk := responseText(resp); chunk != "" {
			if err := writer.WriteMessage(websocket.TextMessage, []byte(chunk)); err != nil {
				return fmt.Errorf("failed to write stream chunk: %w", err)
			}
		}
	}
}

// responseText 拼接首个候选的全部文本部分。
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// mapGeminiError 将 SDK 错误映射到包级哨兵错误。
func mapGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 429 {
		return fmt.Errorf("%w: %s", ErrRateLimited, gerr.Message)
	}
	return fmt.Errorf("gemini generate: %w", err)
}
