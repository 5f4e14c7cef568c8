package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"ai-studio-go/internal/generation"
	"ai-studio-go/pkg/llm"
	"ai-studio-go/pkg/preview"
	"ai-studio-go/pkg/tasks"
)

// fakeLLMClient 返回预置的应答。
type fakeLLMClient struct {
	response string
	err      error
}

func (c *fakeLLMClient) Chat(ctx context.Context, messages []llm.Message, model string) (string, error) {
	return c.response, c.err
}

func (c *fakeLLMClient) ChatStream(ctx context.Context, messages []llm.Message, model string, writer llm.MessageWriter) error {
	if c.err != nil {
		return c.err
	}
	for _, chunk := range strings.SplitAfter(c.response, " ") {
		if err := writer.WriteMessage(1, []byte(chunk)); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeLLMClient) GenerateWebsite(ctx context.Context, prompt string, files []llm.ContextFile, model string) (string, error) {
	return c.response, c.err
}

// fakeLock 是 GenerationLock 的内存实现。
type fakeLock struct {
	held map[string]bool
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: make(map[string]bool)}
}

func (l *fakeLock) Acquire(ctx context.Context, sessionKey string, ttl time.Duration) (bool, error) {
	if l.held[sessionKey] {
		return false, nil
	}
	l.held[sessionKey] = true
	return true, nil
}

func (l *fakeLock) Release(ctx context.Context, sessionKey string) error {
	delete(l.held, sessionKey)
	return nil
}

func TestGenerateProducesFileSetAndPreview(t *testing.T) {
	client := &fakeLLMClient{response: `{"files":[{"path":"index.html","content":"<html><head><link rel=\"stylesheet\" href=\"style.css\"></head><body><h1>Hi</h1></body></html>"},{"path":"style.css","content":"h1 { color: red; }"}]}`}
	svc := NewGenerationService(client, newFakeLock(), nil)

	fileSet, err := svc.Generate(context.Background(), "session-1", "", "build a site", "", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if fileSet.Len() != 2 {
		t.Fatalf("file count: got %d, want 2", fileSet.Len())
	}

	doc := preview.Assemble(fileSet)
	if !strings.Contains(doc, "<h1>Hi</h1>") {
		t.Errorf("preview must contain the page body, got: %s", doc)
	}
	if !strings.Contains(doc, "<style>h1 { color: red; }</style>") {
		t.Errorf("preview must inline the stylesheet, got: %s", doc)
	}
}

func TestGenerateDegradesOnMalformedResponse(t *testing.T) {
	client := &fakeLLMClient{response: "sorry, I cannot do that"}
	svc := NewGenerationService(client, newFakeLock(), nil)

	fileSet, err := svc.Generate(context.Background(), "session-1", "", "build a site", "", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, ok := fileSet.Get(generation.ErrorFilePath); !ok {
		t.Fatalf("malformed response must degrade to %s, got paths %v", generation.ErrorFilePath, fileSet.Paths())
	}
}

func TestGenerateMapsRateLimitError(t *testing.T) {
	client := &fakeLLMClient{err: llm.ErrRateLimited}
	svc := NewGenerationService(client, newFakeLock(), nil)

	if _, err := svc.Generate(context.Background(), "session-1", "", "build", "", nil); err != ErrRateLimited {
		t.Fatalf("got %v, want ErrRateLimited", err)
	}
}

func TestGenerateIsSingleFlightPerSession(t *testing.T) {
	lock := newFakeLock()
	lock.held["busy-session"] = true
	svc := NewGenerationService(&fakeLLMClient{response: "{}"}, lock, nil)

	if _, err := svc.Generate(context.Background(), "busy-session", "", "build", "", nil); err != ErrGenerationInFlight {
		t.Fatalf("got %v, want ErrGenerationInFlight", err)
	}
}

func TestGenerateReleasesLockAfterCompletion(t *testing.T) {
	lock := newFakeLock()
	svc := NewGenerationService(&fakeLLMClient{response: `{"files":[{"path":"index.html","content":"<p>ok</p>"}]}`, err: nil}, lock, nil)

	if _, err := svc.Generate(context.Background(), "s", "", "build", "", nil); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if _, err := svc.Generate(context.Background(), "s", "", "build", "", nil); err != nil {
		t.Fatalf("second Generate after release: %v", err)
	}
}

func TestGeneratePublishesHistoryEvent(t *testing.T) {
	var published []tasks.HistoryEvent
	publish := func(event tasks.HistoryEvent) error {
		published = append(published, event)
		return nil
	}
	client := &fakeLLMClient{response: `{"files":[{"path":"index.html","content":"<p>ok</p>"}]}`}
	svc := NewGenerationService(client, newFakeLock(), publish)

	if _, err := svc.Generate(context.Background(), "s", "user-1", "make me a site", "", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(published) != 1 {
		t.Fatalf("published events: got %d, want 1", len(published))
	}
	event := published[0]
	if event.Kind != tasks.KindProject {
		t.Errorf("event kind: got %s, want %s", event.Kind, tasks.KindProject)
	}
	if event.UserID != "user-1" || event.Prompt != "make me a site" {
		t.Errorf("event fields wrong: %+v", event)
	}
	if !strings.Contains(event.FilesJSON, "index.html") {
		t.Errorf("event files payload must include generated paths, got: %s", event.FilesJSON)
	}
}

func TestGenerateSkipsPublishForAnonymousUsers(t *testing.T) {
	published := 0
	publish := func(tasks.HistoryEvent) error {
		published++
		return nil
	}
	client := &fakeLLMClient{response: `{"files":[{"path":"index.html","content":"<p>ok</p>"}]}`}
	svc := NewGenerationService(client, newFakeLock(), publish)

	if _, err := svc.Generate(context.Background(), "s", "", "build", "", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if published != 0 {
		t.Errorf("anonymous generations must not publish history events, got %d", published)
	}
}
