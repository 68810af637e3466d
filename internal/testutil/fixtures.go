package testutil

import (
	"context"
	"sync"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/repository"
)

// MemoryTokenStore 内存令牌表，实现 repository.TokenStore
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*model.AuthToken
}

// NewMemoryTokenStore 创建令牌表
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]*model.AuthToken)}
}

func (m *MemoryTokenStore) CreateToken(_ context.Context, token *model.AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := *token
	m.tokens[token.Token] = &t
	return nil
}

func (m *MemoryTokenStore) GetTokenByValue(_ context.Context, value string) (*model.AuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[value]
	if !ok || t.IsRevoked {
		return nil, repository.ErrNotFound
	}
	out := *t
	return &out, nil
}

func (m *MemoryTokenStore) RevokeToken(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[value]; ok {
		t.IsRevoked = true
	}
	return nil
}
