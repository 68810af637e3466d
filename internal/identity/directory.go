package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/repository"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// storedUser 本地目录中的用户记录，包含 model.User 序列化时省略的字段
type storedUser struct {
	*model.User
	PasswordHash string `json:"password_hash,omitempty"`
	ExternalID   string `json:"external_id,omitempty"`
}

// KVUserDirectory 基于独立键值存储的用户目录（本地模式）
// 与业务数据分开存放，容量淘汰不会删除用户记录
type KVUserDirectory struct {
	kv storage.KV
	mu sync.Mutex
}

// NewKVUserDirectory 创建本地用户目录
func NewKVUserDirectory(kv storage.KV) *KVUserDirectory {
	return &KVUserDirectory{kv: kv}
}

var _ repository.UserStore = (*KVUserDirectory)(nil)

func userKey(id string) string     { return "user:" + id }
func emailKey(email string) string { return "email:" + email }

// CreateUser 创建用户，邮箱重复时报错
func (d *KVUserDirectory) CreateUser(ctx context.Context, user *model.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok, err := d.kv.Get(ctx, emailKey(user.Email)); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("user with email %s already exists", user.Email)
	}
	if err := d.put(ctx, user); err != nil {
		return err
	}
	return d.kv.Set(ctx, emailKey(user.Email), user.ID)
}

// GetUserByID 获取用户
func (d *KVUserDirectory) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	raw, ok, err := d.kv.Get(ctx, userKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	var su storedUser
	su.User = &model.User{}
	if err := json.Unmarshal([]byte(raw), &su); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	su.User.PasswordHash = su.PasswordHash
	su.User.ExternalID = su.ExternalID
	return su.User, nil
}

// GetUserByEmail 获取用户
func (d *KVUserDirectory) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	id, ok, err := d.kv.Get(ctx, emailKey(email))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d.GetUserByID(ctx, id)
}

// UpdateUser 更新用户，邮箱不可变更
func (d *KVUserDirectory) UpdateUser(ctx context.Context, user *model.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, err := d.GetUserByID(ctx, user.ID)
	if err != nil {
		return err
	}
	if existing.Email != user.Email {
		return errors.New("email cannot be changed")
	}
	return d.put(ctx, user)
}

func (d *KVUserDirectory) put(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(storedUser{
		User:         user,
		PasswordHash: user.PasswordHash,
		ExternalID:   user.ExternalID,
	})
	if err != nil {
		return err
	}
	return d.kv.Set(ctx, userKey(user.ID), string(data))
}
