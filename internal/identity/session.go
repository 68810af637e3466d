// Package identity 管理登录会话：认证状态、会话过期、令牌与用户资料同步
package identity

import (
	"sync"
	"time"

	"github.com/walter2161/grupo-de-agentes/internal/model"
)

// State 会话状态
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateExpired        State = "expired"
)

// Session 显式的会话上下文，决定存储层使用的命名空间
type Session struct {
	mu        sync.RWMutex
	state     State
	user      *model.User
	token     string
	expiresAt time.Time
	listeners []func(State)
}

// NewSession 创建匿名会话
func NewSession() *Session {
	return &Session{state: StateAnonymous}
}

// State 当前状态
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UserID 已认证时返回用户 id，否则为空
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated || s.user == nil {
		return ""
	}
	return s.user.ID
}

// User 返回当前用户的副本，未认证时为 nil
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated || s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token 当前会话令牌
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt 会话过期时间
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Subscribe 注册状态变化回调
func (s *Session) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// CheckExpiry 已过期时切换到 expired 并清除令牌，返回是否发生切换
func (s *Session) CheckExpiry(now time.Time) bool {
	s.mu.Lock()
	if s.state != StateAuthenticated || now.Before(s.expiresAt) {
		s.mu.Unlock()
		return false
	}
	s.state = StateExpired
	s.user = nil
	s.token = ""
	s.expiresAt = time.Time{}
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	notify(listeners, StateExpired)
	return true
}

func (s *Session) beginAuth() {
	s.transition(StateAuthenticating, nil, "", time.Time{})
}

func (s *Session) authenticate(user *model.User, token string, expiresAt time.Time) {
	u := *user
	s.transition(StateAuthenticated, &u, token, expiresAt)
}

func (s *Session) reset() {
	s.transition(StateAnonymous, nil, "", time.Time{})
}

func (s *Session) transition(state State, user *model.User, token string, expiresAt time.Time) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.user = user
	s.token = token
	s.expiresAt = expiresAt
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		notify(listeners, state)
	}
}

func (s *Session) snapshotListeners() []func(State) {
	out := make([]func(State), len(s.listeners))
	copy(out, s.listeners)
	return out
}

func notify(listeners []func(State), state State) {
	for _, fn := range listeners {
		fn(state)
	}
}
