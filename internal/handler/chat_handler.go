package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ai-studio-go/internal/middleware"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/service"
	"ai-studio-go/pkg/log"
	"ai-studio-go/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// errStreamStopped 表示用户主动中断了流式响应。
var errStreamStopped = errors.New("stream stopped by client")

// ChatHandler 负责处理对话请求，包括普通 HTTP 与 WebSocket 流式两种通道。
type ChatHandler struct {
	chatService   service.ChatService
	stopToken     string
	stopTokenLock sync.Mutex
	// 每连接停止标志
	stopFlags sync.Map // key: conn pointer string, value: bool
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest 定义了对话 API 的请求体结构。
// Model 可选，缺省时使用配置的默认模型。
type ChatRequest struct {
	Messages []model.ChatMessage `json:"messages" binding:"required"`
	Model    string              `json:"model"`
}

// Chat 处理一次非流式对话请求。
// 最新消息表达建站意图时返回 isWebsiteRequest，提示前端切换到生成面板。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A non-empty messages array is required"})
		return
	}

	userID := ""
	if user := middleware.CurrentUser(c); user != nil {
		userID = user.ID
	}

	reply, err := h.chatService.Respond(c.Request.Context(), userID, req.Model, req.Messages)
	if err != nil {
		if errors.Is(err, service.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, retry later"})
			return
		}
		log.Errorf("Chat: failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat failed"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// GetWebsocketStopToken 返回一个可用于停止流的令牌。
func (h *ChatHandler) GetWebsocketStopToken(c *gin.Context) {
	h.stopTokenLock.Lock()
	defer h.stopTokenLock.Unlock()
	// 单机轮换令牌；多实例部署时应放进 Redis
	h.stopToken = "WSS_STOP_CMD_" + session.GenerateRandomString(16)
	c.JSON(http.StatusOK, gin.H{"cmdToken": h.stopToken})
}

// Stream 处理一个传入的 WebSocket 连接，逐条消息流式回复。
func (h *ChatHandler) Stream(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()
	// 连接关闭时一并清理停止标志，否则停止后断开会在 map 里留下孤儿条目
	defer h.stopFlags.Delete(connKey(conn))

	log.Infof("WebSocket 连接已建立，用户: %s", user.Email)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		// 停止指令：整条消息等于当前停止令牌
		h.stopTokenLock.Lock()
		stopTokenValue := h.stopToken
		h.stopTokenLock.Unlock()
		if stopTokenValue != "" && string(message) == stopTokenValue {
			h.stopFlags.Store(connKey(conn), true)
			continue
		}

		// 清除旧标志后开始新一轮流式响应
		h.stopFlags.Delete(connKey(conn))
		writer := &stoppableWriter{conn: conn, shouldStop: func() bool {
			v, ok := h.stopFlags.Load(connKey(conn))
			return ok && v.(bool)
		}}

		err = h.chatService.StreamRespond(c.Request.Context(), user.ID, string(message), writer)
		if err != nil && !errors.Is(err, errStreamStopped) {
			log.Errorf("处理流式响应失败: %v", err)
			errResp := map[string]string{"error": "The assistant is temporarily unavailable, please retry"}
			b, _ := json.Marshal(errResp)
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}

		// 每轮结束都发送 completion 通知，包括出错与被中断的情况
		resp := map[string]interface{}{
			"type":      "completion",
			"status":    "finished",
			"timestamp": time.Now().UnixMilli(),
		}
		cb, _ := json.Marshal(resp)
		_ = conn.WriteMessage(websocket.TextMessage, cb)
	}
}

// stoppableWriter 在透传分片前检查停止标志，被置位时中断上游流。
type stoppableWriter struct {
	conn       *websocket.Conn
	shouldStop func() bool
}

func (w *stoppableWriter) WriteMessage(messageType int, data []byte) error {
	if w.shouldStop() {
		return errStreamStopped
	}
	return w.conn.WriteMessage(messageType, data)
}

func connKey(conn *websocket.Conn) string {
	return fmt.Sprintf("%p", conn)
}
