package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/repository"
)

// 外部认证提供方返回的错误
var (
	ErrExternalRejected   = errors.New("external provider rejected credentials")
	ErrExternalRegistered = errors.New("external identity already registered")
)

// ExternalIdentity 外部认证提供方报告的已登录身份
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
	Avatar  string
}

// ExternalAuthenticator 委托凭证校验的外部认证提供方
type ExternalAuthenticator interface {
	SignIn(ctx context.Context, email, credential string) (*ExternalIdentity, error)
	SignUp(ctx context.Context, email, name, credential string) (*ExternalIdentity, error)
}

// LoginExternal 通过外部提供方登录
func (p *Provider) LoginExternal(ctx context.Context, sess *Session, email, credential string) (*AuthResult, error) {
	if p.external == nil {
		return nil, errors.New("no external authenticator configured")
	}
	sess.beginAuth()

	ident, err := p.external.SignIn(ctx, normalizeEmail(email), credential)
	if errors.Is(err, ErrExternalRejected) {
		sess.reset()
		return failure(msgInvalidCredentials), nil
	}
	if err != nil {
		sess.reset()
		return nil, fmt.Errorf("external sign in: %w", err)
	}
	return p.HandleUserSession(ctx, sess, *ident)
}

// RegisterExternal 通过外部提供方注册
func (p *Provider) RegisterExternal(ctx context.Context, sess *Session, email, name, credential string) (*AuthResult, error) {
	if p.external == nil {
		return nil, errors.New("no external authenticator configured")
	}
	email = normalizeEmail(email)
	if msg := validateRegistration(email, name, credential); msg != "" {
		return failure(msg), nil
	}
	sess.beginAuth()

	ident, err := p.external.SignUp(ctx, email, name, credential)
	if errors.Is(err, ErrExternalRegistered) {
		sess.reset()
		return failure(msgEmailTaken), nil
	}
	if err != nil {
		sess.reset()
		return nil, fmt.Errorf("external sign up: %w", err)
	}
	if ident.Name == "" {
		ident.Name = name
	}
	return p.HandleUserSession(ctx, sess, *ident)
}

// HandleUserSession 外部提供方报告登录后，查找或创建本地用户并同步资料
func (p *Provider) HandleUserSession(ctx context.Context, sess *Session, ident ExternalIdentity) (*AuthResult, error) {
	email := normalizeEmail(ident.Email)
	if email == "" {
		sess.reset()
		return failure(msgInvalidEmail), nil
	}

	user, err := p.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		now := p.now()
		name := ident.Name
		if name == "" {
			name = email
		}
		user = &model.User{
			ID:         uuid.New().String(),
			Email:      email,
			Name:       name,
			Provider:   model.UserProviderExternal,
			ExternalID: ident.Subject,
			Avatar:     ident.Avatar,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := p.users.CreateUser(ctx, user); err != nil {
			sess.reset()
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		sess.reset()
		return nil, fmt.Errorf("lookup user: %w", err)
	default:
		if !user.IsActive {
			sess.reset()
			return failure(msgAccountDisabled), nil
		}
		if user.ExternalID == "" && ident.Subject != "" {
			user.ExternalID = ident.Subject
			user.UpdatedAt = p.now()
			if err := p.users.UpdateUser(ctx, user); err != nil {
				sess.reset()
				return nil, fmt.Errorf("failed to link external identity: %w", err)
			}
		}
	}

	return p.establish(ctx, sess, user)
}
