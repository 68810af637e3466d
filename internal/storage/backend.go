package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNotAuthenticated 远程数据域需要登录用户
var ErrNotAuthenticated = errors.New("storage: no authenticated user")

// 数据域
const (
	DomainProfile      = "profile"
	DomainAgents       = "agents"
	DomainGroups       = "groups"
	DomainMessages     = "messages"
	DomainInteractions = "interaction-counters"
)

// Domains 全部数据域
func Domains() []string {
	return []string{DomainProfile, DomainAgents, DomainGroups, DomainMessages, DomainInteractions}
}

// 对话记录作用域前缀
const (
	agentScopePrefix = "agent:"
	groupScopePrefix = "group:"
)

// Key 数据域加作用域，例如 messages + agent:leo-dev
type Key struct {
	Domain string
	Scope  string
}

// ProfileKey 用户资料
func ProfileKey() Key { return Key{Domain: DomainProfile} }

// AgentsKey 智能体列表
func AgentsKey() Key { return Key{Domain: DomainAgents} }

// GroupsKey 群组列表
func GroupsKey() Key { return Key{Domain: DomainGroups} }

// InteractionsKey 交互计数
func InteractionsKey() Key { return Key{Domain: DomainInteractions} }

// AgentMessagesKey 与单个智能体的对话记录
func AgentMessagesKey(agentID string) Key {
	return Key{Domain: DomainMessages, Scope: agentScopePrefix + agentID}
}

// GroupMessagesKey 群组对话记录
func GroupMessagesKey(groupID string) Key {
	return Key{Domain: DomainMessages, Scope: groupScopePrefix + groupID}
}

// AgentID 返回 agent 作用域的 id
func (k Key) AgentID() (string, bool) {
	return strings.CutPrefix(k.Scope, agentScopePrefix)
}

// GroupID 返回 group 作用域的 id
func (k Key) GroupID() (string, bool) {
	return strings.CutPrefix(k.Scope, groupScopePrefix)
}

// Name 本地存储中的键名（不含命名空间）
func (k Key) Name() string {
	switch k.Domain {
	case DomainProfile:
		return ProfileKeyName
	case DomainAgents:
		return AgentsKeyName
	case DomainGroups:
		return "groups"
	case DomainInteractions:
		return "agent-interactions"
	case DomainMessages:
		if id, ok := k.AgentID(); ok {
			return "chat-history-" + id
		}
		if id, ok := k.GroupID(); ok {
			return "group-chat-" + id
		}
	}
	if k.Scope == "" {
		return k.Domain
	}
	return k.Domain + "-" + k.Scope
}

// KeyFromName 由本地键名还原 Key，无法识别时返回 false
func KeyFromName(name string) (Key, bool) {
	switch name {
	case ProfileKeyName:
		return ProfileKey(), true
	case AgentsKeyName:
		return AgentsKey(), true
	case "groups":
		return GroupsKey(), true
	case "agent-interactions":
		return InteractionsKey(), true
	}
	if id, ok := strings.CutPrefix(name, "chat-history-"); ok && id != "" {
		return AgentMessagesKey(id), true
	}
	if id, ok := strings.CutPrefix(name, "group-chat-"); ok && id != "" {
		return GroupMessagesKey(id), true
	}
	return Key{}, false
}

// Backend 存储策略
type Backend interface {
	Name() string
	Load(ctx context.Context, userID string, key Key) ([]byte, bool, error)
	Save(ctx context.Context, userID string, key Key, data []byte) error
	Remove(ctx context.Context, userID string, key Key) error
}

// ElementRemover 支持删除集合中的单个元素（远程行）
type ElementRemover interface {
	RemoveElement(ctx context.Context, userID string, key Key, elementID string) error
}

// LocalBackend 基于 Store 的本地后端，命名空间为用户 id
type LocalBackend struct {
	store *Store
}

// NewLocalBackend 创建本地后端
func NewLocalBackend(store *Store) *LocalBackend {
	return &LocalBackend{store: store}
}

// Store 返回底层 Store
func (b *LocalBackend) Store() *Store {
	return b.store
}

func (b *LocalBackend) Name() string { return "local" }

func (b *LocalBackend) Load(ctx context.Context, userID string, key Key) ([]byte, bool, error) {
	raw, ok, err := b.store.ReadRaw(ctx, userID, key.Name())
	if err != nil || !ok {
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (b *LocalBackend) Save(ctx context.Context, userID string, key Key, data []byte) error {
	return b.store.WriteRaw(ctx, userID, key.Name(), string(data))
}

func (b *LocalBackend) Remove(ctx context.Context, userID string, key Key) error {
	return b.store.Remove(ctx, userID, key.Name())
}

// Registry 数据域到后端的静态映射，未知数据域回退到本地后端
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
	local    *LocalBackend
}

// NewRegistry 创建注册表
func NewRegistry(local *LocalBackend) *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		local:    local,
	}
}

// Register 注册数据域后端
func (r *Registry) Register(domain string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[domain] = b
}

// For 返回数据域对应的后端
func (r *Registry) For(domain string) Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.backends[domain]; ok {
		return b
	}
	return r.local
}

// IsLocal 数据域是否使用本地后端
func (r *Registry) IsLocal(domain string) bool {
	return r.For(domain) == Backend(r.local)
}

// Local 返回本地后端
func (r *Registry) Local() *LocalBackend {
	return r.local
}
