// Package remote 提供基于 PostgreSQL 行存储的数据域后端
// 每个查询都按 user_id 过滤，写入按自然键 upsert
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/repository"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// Stores 远程后端依赖的仓库
type Stores struct {
	Profiles     repository.ProfileStore
	Agents       repository.AgentStore
	Groups       repository.GroupStore
	Messages     repository.MessageStore
	Interactions repository.InteractionStore
	Collections  repository.CollectionStore
}

// Register 为启用的数据域注册远程后端
func Register(reg *storage.Registry, stores Stores, enabled func(domain string) bool) {
	backends := map[string]storage.Backend{
		storage.DomainProfile:      &ProfileBackend{store: stores.Profiles},
		storage.DomainAgents:       NewAgentsBackend(stores.Agents, stores.Collections),
		storage.DomainGroups:       NewGroupsBackend(stores.Groups, stores.Collections),
		storage.DomainMessages:     NewMessagesBackend(stores.Messages, stores.Collections),
		storage.DomainInteractions: NewInteractionsBackend(stores.Interactions, stores.Collections),
	}
	for domain, b := range backends {
		if enabled(domain) {
			reg.Register(domain, b)
		}
	}
}

// encodeList 编码行列表
// 没有行时，用户保存过该键则返回空列表，否则视为不存在，调用方使用默认值
func encodeList[T any](ctx context.Context, saved repository.CollectionStore, userID string, key storage.Key, rows []T) ([]byte, bool, error) {
	if len(rows) == 0 {
		if saved == nil {
			return nil, false, nil
		}
		ok, err := saved.Saved(ctx, userID, key.Name())
		if err != nil || !ok {
			return nil, false, err
		}
		return []byte("[]"), true, nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func markSaved(ctx context.Context, saved repository.CollectionStore, userID string, key storage.Key) error {
	if saved == nil {
		return nil
	}
	if err := saved.Mark(ctx, userID, key.Name()); err != nil {
		return fmt.Errorf("mark %s saved: %w", key.Name(), err)
	}
	return nil
}

func unmarkSaved(ctx context.Context, saved repository.CollectionStore, userID string, key storage.Key) error {
	if saved == nil {
		return nil
	}
	return saved.Unmark(ctx, userID, key.Name())
}

func decode[T any](key storage.Key, data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", key.Name(), err)
	}
	return v, nil
}

// ProfileBackend 用户资料，一行一个用户
type ProfileBackend struct {
	store repository.ProfileStore
}

// NewProfileBackend 创建资料后端
func NewProfileBackend(store repository.ProfileStore) *ProfileBackend {
	return &ProfileBackend{store: store}
}

func (b *ProfileBackend) Name() string { return "remote-profiles" }

func (b *ProfileBackend) Load(ctx context.Context, userID string, _ storage.Key) ([]byte, bool, error) {
	if userID == "" {
		return nil, false, storage.ErrNotAuthenticated
	}
	p, err := b.store.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := json.Marshal(p)
	return data, err == nil, err
}

func (b *ProfileBackend) Save(ctx context.Context, userID string, key storage.Key, data []byte) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	p, err := decode[model.UserProfile](key, data)
	if err != nil {
		return err
	}
	p.RowID = 0
	p.UserID = userID
	return b.store.Upsert(ctx, &p)
}

func (b *ProfileBackend) Remove(ctx context.Context, userID string, _ storage.Key) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	return b.store.Delete(ctx, userID)
}

// AgentsBackend 智能体列表，自然键 (user_id, agent_id)
type AgentsBackend struct {
	store repository.AgentStore
	saved repository.CollectionStore
}

// NewAgentsBackend 创建智能体后端
func NewAgentsBackend(store repository.AgentStore, saved repository.CollectionStore) *AgentsBackend {
	return &AgentsBackend{store: store, saved: saved}
}

func (b *AgentsBackend) Name() string { return "remote-agents" }

func (b *AgentsBackend) Load(ctx context.Context, userID string, key storage.Key) ([]byte, bool, error) {
	if userID == "" {
		return nil, false, storage.ErrNotAuthenticated
	}
	rows, err := b.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return encodeList(ctx, b.saved, userID, key, rows)
}

func (b *AgentsBackend) Save(ctx context.Context, userID string, key storage.Key, data []byte) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	agents, err := decode[[]model.Agent](key, data)
	if err != nil {
		return err
	}
	if err := b.store.UpsertAll(ctx, userID, agents); err != nil {
		return err
	}
	return markSaved(ctx, b.saved, userID, key)
}

func (b *AgentsBackend) Remove(ctx context.Context, userID string, key storage.Key) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	if err := b.store.DeleteAll(ctx, userID); err != nil {
		return err
	}
	return unmarkSaved(ctx, b.saved, userID, key)
}

// RemoveElement 删除单个智能体
func (b *AgentsBackend) RemoveElement(ctx context.Context, userID string, _ storage.Key, agentID string) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	return b.store.Delete(ctx, userID, agentID)
}

// GroupsBackend 群组列表，自然键 (user_id, group_id)
type GroupsBackend struct {
	store repository.GroupStore
	saved repository.CollectionStore
}

// NewGroupsBackend 创建群组后端
func NewGroupsBackend(store repository.GroupStore, saved repository.CollectionStore) *GroupsBackend {
	return &GroupsBackend{store: store, saved: saved}
}

func (b *GroupsBackend) Name() string { return "remote-groups" }

func (b *GroupsBackend) Load(ctx context.Context, userID string, key storage.Key) ([]byte, bool, error) {
	if userID == "" {
		return nil, false, storage.ErrNotAuthenticated
	}
	rows, err := b.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return encodeList(ctx, b.saved, userID, key, rows)
}

func (b *GroupsBackend) Save(ctx context.Context, userID string, key storage.Key, data []byte) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	groups, err := decode[[]model.Group](key, data)
	if err != nil {
		return err
	}
	if err := b.store.UpsertAll(ctx, userID, groups); err != nil {
		return err
	}
	return markSaved(ctx, b.saved, userID, key)
}

func (b *GroupsBackend) Remove(ctx context.Context, userID string, key storage.Key) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	if err := b.store.DeleteAll(ctx, userID); err != nil {
		return err
	}
	return unmarkSaved(ctx, b.saved, userID, key)
}

// RemoveElement 删除单个群组
func (b *GroupsBackend) RemoveElement(ctx context.Context, userID string, _ storage.Key, groupID string) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	return b.store.Delete(ctx, userID, groupID)
}

// InteractionsBackend 交互计数，自然键 (user_id, agent_id)
type InteractionsBackend struct {
	store repository.InteractionStore
	saved repository.CollectionStore
}

// NewInteractionsBackend 创建交互计数后端
func NewInteractionsBackend(store repository.InteractionStore, saved repository.CollectionStore) *InteractionsBackend {
	return &InteractionsBackend{store: store, saved: saved}
}

func (b *InteractionsBackend) Name() string { return "remote-interactions" }

func (b *InteractionsBackend) Load(ctx context.Context, userID string, key storage.Key) ([]byte, bool, error) {
	if userID == "" {
		return nil, false, storage.ErrNotAuthenticated
	}
	rows, err := b.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return encodeList(ctx, b.saved, userID, key, rows)
}

func (b *InteractionsBackend) Save(ctx context.Context, userID string, key storage.Key, data []byte) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	rows, err := decode[[]model.AgentInteraction](key, data)
	if err != nil {
		return err
	}
	if err := b.store.UpsertAll(ctx, userID, rows); err != nil {
		return err
	}
	return markSaved(ctx, b.saved, userID, key)
}

func (b *InteractionsBackend) Remove(ctx context.Context, userID string, key storage.Key) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	if err := b.store.DeleteAll(ctx, userID); err != nil {
		return err
	}
	return unmarkSaved(ctx, b.saved, userID, key)
}
