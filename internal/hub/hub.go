// Package hub 按用户维护 websocket 连接，推送对话更新
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Writer 单个连接的写端
type Writer interface {
	Write(message []byte) error
	Close() error
}

// Connection 某个用户的一条连接
type Connection struct {
	UserID string
	Writer Writer
}

// Hub 用户 -> 连接集合
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{}
}

// New 创建 Hub
func New() *Hub {
	return &Hub{connections: make(map[string]map[*Connection]struct{})}
}

// Register 注册连接
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.UserID] == nil {
		h.connections[conn.UserID] = make(map[*Connection]struct{})
	}
	h.connections[conn.UserID][conn] = struct{}{}
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[conn.UserID]
	if set == nil {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, conn.UserID)
	}
}

// Count 用户当前连接数
func (h *Hub) Count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// Broadcast 向用户的全部连接发送消息，写失败的连接会被关闭并移除
func (h *Hub) Broadcast(userID string, message []byte) {
	h.mu.RLock()
	set := h.connections[userID]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var failed []*Connection
	for _, c := range conns {
		if err := c.Writer.Write(message); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		_ = c.Writer.Close()
		h.Unregister(c)
	}
}

// Publish 序列化 payload 后广播，匿名用户没有连接，直接忽略
func (h *Hub) Publish(userID string, payload any) {
	if userID == "" {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal hub payload", "error", err)
		return
	}
	h.Broadcast(userID, data)
}
