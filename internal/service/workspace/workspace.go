// Package workspace 组合单个用户的数据与对话
// 资料、智能体、群组、计数与对话记录都经由存储注册表读写
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/chat"
	"github.com/walter2161/grupo-de-agentes/internal/service/quota"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrGroupNotFound = errors.New("group not found")
)

// Deps 所有工作区共享的依赖
type Deps struct {
	Registry *storage.Registry
	Chat     chat.Deps
	Location *time.Location
	MaxDaily int
}

// Workspace 某个会话可见的全部数据
type Workspace struct {
	deps Deps
	ns   storage.Namespacer

	profile      *storage.Handle[model.UserProfile]
	agents       *storage.Handle[[]model.Agent]
	groups       *storage.Handle[[]model.Group]
	interactions *storage.Handle[[]model.AgentInteraction]
	tracker      *quota.Tracker

	mu    sync.Mutex
	convs map[string]*storage.Handle[[]model.ChatMessage]
}

// New 创建工作区，ns 通常是当前会话
func New(deps Deps, ns storage.Namespacer) *Workspace {
	if deps.Chat.Gate == nil {
		deps.Chat.Gate = chat.NewGate()
	}
	if deps.Chat.Now == nil {
		deps.Chat.Now = time.Now
	}
	reg := deps.Registry
	w := &Workspace{
		deps:         deps,
		ns:           ns,
		profile:      storage.Open(reg, ns, storage.ProfileKey(), model.DefaultUserProfile()),
		agents:       storage.Open(reg, ns, storage.AgentsKey(), model.DefaultAgents()),
		groups:       storage.Open(reg, ns, storage.GroupsKey(), model.DefaultGroups()),
		interactions: storage.Open(reg, ns, storage.InteractionsKey(), []model.AgentInteraction{}),
		convs:        make(map[string]*storage.Handle[[]model.ChatMessage]),
	}
	w.tracker = quota.NewTracker(w.interactions, deps.Location, deps.MaxDaily)
	w.deps.Chat.Tracker = w.tracker
	return w
}

// UserID 当前命名空间
func (w *Workspace) UserID() string {
	return w.ns.UserID()
}

// Tracker 交互计数
func (w *Workspace) Tracker() *quota.Tracker {
	return w.tracker
}

// Interactions 全部交互计数
func (w *Workspace) Interactions(ctx context.Context) []model.AgentInteraction {
	return w.tracker.List(ctx)
}

// Refresh 重新读取全部数据域，用于登录状态变化之后
func (w *Workspace) Refresh(ctx context.Context) error {
	return errors.Join(
		w.profile.Refresh(ctx),
		w.agents.Refresh(ctx),
		w.groups.Refresh(ctx),
		w.interactions.Refresh(ctx),
	)
}

func (w *Workspace) now() time.Time {
	return w.deps.Chat.Now()
}

// Manager 按用户缓存工作区，服务端每个请求通过它取得同一用户的共享句柄
type Manager struct {
	deps Deps

	mu    sync.Mutex
	items map[string]*Workspace
}

// NewManager 创建管理器
func NewManager(deps Deps) *Manager {
	if deps.Chat.Gate == nil {
		deps.Chat.Gate = chat.NewGate()
	}
	return &Manager{deps: deps, items: make(map[string]*Workspace)}
}

// Get 返回用户的工作区
func (m *Manager) Get(userID string) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.items[userID]; ok {
		return w
	}
	w := New(m.deps, fixedNamespace(userID))
	m.items[userID] = w
	return w
}

// Forget 丢弃缓存，用户登出后调用
func (m *Manager) Forget(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
}

type fixedNamespace string

func (n fixedNamespace) UserID() string { return string(n) }

// Deps 管理器共享的依赖
func (m *Manager) Deps() Deps {
	return m.deps
}
