package testutil

import (
	"sync"

	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// Namespace 可切换的命名空间
type Namespace struct {
	mu sync.Mutex
	id string
}

// NewNamespace 创建命名空间，空字符串表示未登录
func NewNamespace(userID string) *Namespace {
	return &Namespace{id: userID}
}

func (n *Namespace) UserID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.id
}

// Switch 切换用户
func (n *Namespace) Switch(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.id = userID
}

// NewMemoryRegistry 基于内存 KV 的本地存储注册表，capacity 为 0 表示不限制
func NewMemoryRegistry(capacity int64) *storage.Registry {
	return storage.NewRegistry(storage.NewLocalBackend(storage.NewStore(storage.NewMemoryKV(capacity))))
}
