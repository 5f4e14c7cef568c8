// Package tasks defines the structure for events that are sent to Kafka.
package tasks

// 历史事件类型。
const (
	KindChat    = "chat"
	KindProject = "project"
)

// HistoryEvent 表示一条待持久化的用户历史事件。
// 聊天与生成完成后由 handler 异步投递，消费端负责落库与索引。
type HistoryEvent struct {
	EventID      string `json:"event_id"`
	Kind         string `json:"kind"` // KindChat 或 KindProject
	UserID       string `json:"user_id"`
	ModelUsed    string `json:"model_used"`
	Prompt       string `json:"prompt"`
	MessagesJSON string `json:"messages_json,omitempty"`
	FilesJSON    string `json:"files_json,omitempty"`
}
