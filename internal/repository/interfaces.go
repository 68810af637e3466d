// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import (
	"context"

	"github.com/walter2161/grupo-de-agentes/internal/model"
)

// UserStore 用户数据访问接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

// TokenStore 会话令牌数据访问接口
type TokenStore interface {
	CreateToken(ctx context.Context, token *model.AuthToken) error
	GetTokenByValue(ctx context.Context, tokenValue string) (*model.AuthToken, error)
	RevokeToken(ctx context.Context, tokenValue string) error
}

// ProfileStore 用户资料数据访问接口
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Upsert(ctx context.Context, profile *model.UserProfile) error
	Delete(ctx context.Context, userID string) error
}

// AgentStore 智能体数据访问接口
type AgentStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.Agent, error)
	UpsertAll(ctx context.Context, userID string, agents []model.Agent) error
	Delete(ctx context.Context, userID, agentID string) error
	DeleteAll(ctx context.Context, userID string) error
}

// GroupStore 群组数据访问接口
type GroupStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.Group, error)
	UpsertAll(ctx context.Context, userID string, groups []model.Group) error
	Delete(ctx context.Context, userID, groupID string) error
	DeleteAll(ctx context.Context, userID string) error
}

// MessageStore 对话消息数据访问接口
type MessageStore interface {
	ListByAgent(ctx context.Context, userID, agentID string) ([]model.ChatMessage, error)
	ListByGroup(ctx context.Context, userID, groupID string) ([]model.ChatMessage, error)
	UpsertAll(ctx context.Context, userID string, messages []model.ChatMessage) error
	DeleteByAgent(ctx context.Context, userID, agentID string) error
	DeleteByGroup(ctx context.Context, userID, groupID string) error
	Prune(ctx context.Context, userID, agentID, groupID string, keepIDs []string) error
}

// InteractionStore 交互计数数据访问接口
type InteractionStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.AgentInteraction, error)
	UpsertAll(ctx context.Context, userID string, rows []model.AgentInteraction) error
	DeleteAll(ctx context.Context, userID string) error
}

// CollectionStore 列表数据域保存标记的访问接口
type CollectionStore interface {
	Mark(ctx context.Context, userID, key string) error
	Saved(ctx context.Context, userID, key string) (bool, error)
	Unmark(ctx context.Context, userID, key string) error
}

// 确保实现了接口
var (
	_ UserStore        = (*AuthRepository)(nil)
	_ TokenStore       = (*AuthRepository)(nil)
	_ ProfileStore     = (*ProfileRepository)(nil)
	_ AgentStore       = (*AgentRepository)(nil)
	_ GroupStore       = (*GroupRepository)(nil)
	_ MessageStore     = (*MessageRepository)(nil)
	_ InteractionStore = (*InteractionRepository)(nil)
	_ CollectionStore  = (*CollectionRepository)(nil)
)
