// internal/api/handlers/websocket_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cattle-certification-api-server/internal/auth"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/socket"
)

// Thời gian chờ tối đa cho một tin nhắn từ client.
const pongWait = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub    *socket.Hub
	Tokens *auth.Manager
	Log    logger.Logger
}

// ServeWs xử lý các yêu cầu kết nối WebSocket. Trình duyệt không gửi được header
// Authorization khi mở WebSocket nên token nằm ở query string.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := h.Tokens.Parse(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("failed to upgrade connection", map[string]any{"userId": userID, "error": err})
		return
	}

	h.Hub.Register(userID, conn)
	defer func() {
		h.Hub.Unregister(userID, conn)
		conn.Close()
	}()

	// Mỗi PING từ client gia hạn deadline; gorilla/websocket tự trả PONG.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, nil, time.Now().Add(time.Second))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Log.Warn("unexpected websocket close", map[string]any{"userId": userID, "error": err})
			}
			break
		}
	}
}
