package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/walter2161/grupo-de-agentes/internal/hub"
	"github.com/walter2161/grupo-de-agentes/internal/identity"
	"github.com/walter2161/grupo-de-agentes/internal/service"
)

const (
	pongWait  = 60 * time.Second
	writeWait = 10 * time.Second
)

// WebSocketHandler 推送对话更新
type WebSocketHandler struct {
	hub      *hub.Hub
	identity *identity.Provider
}

// NewWebSocketHandler 创建 websocket 处理器
func NewWebSocketHandler(svc *service.Services) *WebSocketHandler {
	return &WebSocketHandler{hub: svc.Hub, identity: svc.Identity}
}

type clientMessage struct {
	Type string `json:"type"`
}

type serverMessage struct {
	Type string `json:"type"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsWriter 串行化写入，Hub 广播可能来自多个请求
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) Write(message []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.TextMessage, message)
}

func (w *wsWriter) Close() error {
	return w.conn.Close()
}

// Serve 建立连接，令牌通过 ?token= 传入
// GET /ws
func (h *WebSocketHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" || h.hub == nil {
		Unauthorized(c, "Token inválido")
		return
	}
	user, err := h.identity.Authenticate(c.Request.Context(), token)
	if err != nil {
		Unauthorized(c, "Token inválido")
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	writer := &wsWriter{conn: ws}
	conn := &hub.Connection{UserID: user.ID, Writer: writer}
	h.hub.Register(conn)
	defer func() {
		h.hub.Unregister(conn)
		_ = ws.Close()
	}()

	ws.SetReadLimit(64 * 1024)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(ws, done)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			out, _ := json.Marshal(serverMessage{Type: "pong"})
			_ = writer.Write(out)
		}
	}
}

// keepAlive 定时发送 ping，直到 done 关闭
func keepAlive(ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = ws.Close()
				return
			}
		}
	}
}
