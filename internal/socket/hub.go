// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cattle-certification-api-server/internal/logger"
)

const writeWait = 10 * time.Second

// Conn là phần của *websocket.Conn mà Hub cần.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type client struct {
	conn Conn
	// gorilla/websocket chỉ cho phép một writer tại một thời điểm.
	writeMu sync.Mutex
}

// Hub quản lý các kết nối WebSocket, key là user ID.
type Hub struct {
	clients map[string]*client
	mu      sync.RWMutex
	log     logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients: make(map[string]*client),
		log:     log.With(map[string]any{"component": "websocket"}),
	}
}

// Register thêm client; kết nối cũ của cùng user (nếu có) bị đóng.
func (h *Hub) Register(userID string, conn Conn) {
	h.mu.Lock()
	old := h.clients[userID]
	h.clients[userID] = &client{conn: conn}
	h.mu.Unlock()

	if old != nil && old.conn != conn {
		_ = old.conn.Close()
	}
	h.log.Debug("client registered", map[string]any{"userId": userID})
}

// Unregister chỉ xóa nếu conn vẫn là kết nối hiện tại của user.
func (h *Hub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[userID]; ok && c.conn == conn {
		delete(h.clients, userID)
		h.log.Debug("client unregistered", map[string]any{"userId": userID})
	}
}

func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Send gửi tin nhắn tới một user. User offline không bị coi là lỗi.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		h.log.Debug("client offline, message dropped", map[string]any{"userId": userID})
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (h *Hub) SendJSON(userID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.Send(userID, b)
}
