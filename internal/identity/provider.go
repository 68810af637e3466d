package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/repository"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// 认证失败提示
const (
	msgInvalidCredentials = "E-mail ou senha inválidos"
	msgAccountDisabled    = "Conta desativada"
	msgEmailTaken         = "Este e-mail já está cadastrado"
	msgNameRequired       = "Informe seu nome"
	msgInvalidEmail       = "E-mail inválido"
	msgWeakCredential     = "A senha deve ter pelo menos 6 caracteres"
)

// MinCredentialLength 密码最小长度
const MinCredentialLength = 6

// AuthResult 登录/注册结果，认证失败不是错误
type AuthResult struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	User      *model.User `json:"user,omitempty"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt time.Time   `json:"expires_at,omitempty"`
}

func failure(msg string) *AuthResult {
	return &AuthResult{Success: false, Message: msg}
}

// Options Provider 依赖
type Options struct {
	Users    repository.UserStore
	Tokens   repository.TokenStore // 可选，用于撤销
	Registry *storage.Registry
	Issuer   *TokenIssuer
	Store    SessionStore // 可选，用于启动时恢复
	Migrator *storage.Migrator
	External ExternalAuthenticator
}

// Provider 身份提供者
type Provider struct {
	users    repository.UserStore
	tokens   repository.TokenStore
	registry *storage.Registry
	issuer   *TokenIssuer
	store    SessionStore
	migrator *storage.Migrator
	external ExternalAuthenticator
	now      func() time.Time
}

// NewProvider 创建身份提供者
func NewProvider(opts Options) *Provider {
	return &Provider{
		users:    opts.Users,
		tokens:   opts.Tokens,
		registry: opts.Registry,
		issuer:   opts.Issuer,
		store:    opts.Store,
		migrator: opts.Migrator,
		external: opts.External,
		now:      time.Now,
	}
}

// Login 邮箱密码登录
func (p *Provider) Login(ctx context.Context, sess *Session, email, credential string) (*AuthResult, error) {
	sess.beginAuth()

	user, err := p.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		sess.reset()
		return failure(msgInvalidCredentials), nil
	}
	if err != nil {
		sess.reset()
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.Provider == model.UserProviderExternal || user.PasswordHash == "" {
		sess.reset()
		return failure(msgInvalidCredentials), nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		sess.reset()
		return failure(msgInvalidCredentials), nil
	}
	if !user.IsActive {
		sess.reset()
		return failure(msgAccountDisabled), nil
	}

	return p.establish(ctx, sess, user)
}

// Register 注册并立即登录
func (p *Provider) Register(ctx context.Context, sess *Session, email, name, credential string) (*AuthResult, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if msg := validateRegistration(email, name, credential); msg != "" {
		return failure(msg), nil
	}

	sess.beginAuth()

	_, err := p.users.GetUserByEmail(ctx, email)
	if err == nil {
		sess.reset()
		return failure(msgEmailTaken), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		sess.reset()
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		sess.reset()
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := p.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
		Provider:     model.UserProviderPassword,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		sess.reset()
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("user registered", "user_id", user.ID)

	return p.establish(ctx, sess, user)
}

// Restore 使用保存的会话恢复登录状态，返回是否恢复成功
func (p *Provider) Restore(ctx context.Context, sess *Session) (bool, error) {
	if p.store == nil {
		return false, nil
	}
	stored, ok, err := p.store.Load()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if !p.now().Before(stored.ExpiresAt) {
		sess.reset()
		return false, p.store.Clear()
	}

	user, err := p.Authenticate(ctx, stored.Token)
	if errors.Is(err, ErrInvalidToken) {
		sess.reset()
		return false, p.store.Clear()
	}
	if err != nil {
		return false, err
	}

	sess.authenticate(user, stored.Token, stored.ExpiresAt)
	return true, nil
}

// Authenticate 校验令牌并返回对应的有效用户
func (p *Provider) Authenticate(ctx context.Context, token string) (*model.User, error) {
	user, _, err := p.authenticate(ctx, token)
	return user, err
}

// SessionFor 为服务端请求构造已认证的会话
func (p *Provider) SessionFor(ctx context.Context, token string) (*Session, error) {
	user, claims, err := p.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	sess := NewSession()
	sess.authenticate(user, token, claims.ExpiresAt.Time)
	return sess, nil
}

func (p *Provider) authenticate(ctx context.Context, token string) (*model.User, *Claims, error) {
	claims, err := p.issuer.Verify(token)
	if err != nil {
		return nil, nil, err
	}
	if p.tokens != nil {
		if _, err := p.tokens.GetTokenByValue(ctx, token); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, ErrInvalidToken
			}
			return nil, nil, err
		}
	}

	user, err := p.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidToken
	}
	return user, claims, nil
}

// Logout 清除会话指针，用户数据保留
func (p *Provider) Logout(ctx context.Context, sess *Session) error {
	token := sess.Token()
	sess.reset()

	var errs []error
	if p.tokens != nil && token != "" {
		if err := p.tokens.RevokeToken(ctx, token); err != nil {
			errs = append(errs, fmt.Errorf("revoke token: %w", err))
		}
	}
	if p.store != nil {
		if err := p.store.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("clear session: %w", err))
		}
	}
	return errors.Join(errs...)
}

// CheckExpiry 会话过期时清除保存的会话
func (p *Provider) CheckExpiry(sess *Session) (bool, error) {
	if !sess.CheckExpiry(p.now()) {
		return false, nil
	}
	if p.store != nil {
		return true, p.store.Clear()
	}
	return true, nil
}

// establish 进入已认证状态：签发令牌、迁移本地数据、同步资料
func (p *Provider) establish(ctx context.Context, sess *Session, user *model.User) (*AuthResult, error) {
	token, expiresAt, err := p.issuer.Issue(user.ID)
	if err != nil {
		sess.reset()
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if p.tokens != nil {
		record := &model.AuthToken{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: expiresAt,
		}
		if err := p.tokens.CreateToken(ctx, record); err != nil {
			sess.reset()
			return nil, fmt.Errorf("save token: %w", err)
		}
	}
	if p.store != nil {
		if err := p.store.Save(StoredSession{Token: token, ExpiresAt: expiresAt}); err != nil {
			slog.Warn("failed to persist session", "user_id", user.ID, "error", err)
		}
	}

	sess.authenticate(user, token, expiresAt)

	if p.migrator != nil {
		if err := p.migrator.Migrate(ctx, user.ID); err != nil {
			slog.Warn("storage migration failed", "user_id", user.ID, "error", err)
		}
	}
	if err := p.SyncProfile(ctx, user); err != nil {
		slog.Warn("profile sync failed", "user_id", user.ID, "error", err)
	}

	return &AuthResult{
		Success:   true,
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// SyncProfile 资料不存在或邮箱不一致时，根据用户记录重建资料
func (p *Provider) SyncProfile(ctx context.Context, user *model.User) error {
	backend := p.registry.For(storage.DomainProfile)
	key := storage.ProfileKey()

	data, found, err := backend.Load(ctx, user.ID, key)
	if err != nil {
		return err
	}
	if found {
		var existing model.UserProfile
		if err := json.Unmarshal(data, &existing); err == nil && existing.Email == user.Email {
			return nil
		}
	}

	profile := model.NewProfileFromUser(user, p.now())
	payload, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return backend.Save(ctx, user.ID, key, payload)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(email, name, credential string) string {
	if name == "" {
		return msgNameRequired
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return msgInvalidEmail
	}
	if len([]rune(credential)) < MinCredentialLength {
		return msgWeakCredential
	}
	return ""
}
