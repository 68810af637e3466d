package workspace

import (
	"context"
	"strings"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/chat"
)

// ProfileUpdate 资料修改，nil 字段保持不变
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Avatar   *string `json:"avatar"`
	Bio      *string `json:"bio"`
	Theme    *string `json:"theme"`
	Language *string `json:"language"`
}

// Profile 当前资料
func (w *Workspace) Profile(ctx context.Context) model.UserProfile {
	return w.profile.Value(ctx)
}

// UpdateProfile 修改资料，邮箱由登录流程维护，这里不可修改
func (w *Workspace) UpdateProfile(ctx context.Context, in ProfileUpdate) (model.UserProfile, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return model.UserProfile{}, &chat.ValidationError{Message: "Nome é obrigatório"}
	}
	if in.Theme != nil && *in.Theme != "light" && *in.Theme != "dark" {
		return model.UserProfile{}, &chat.ValidationError{Message: "Tema inválido"}
	}

	var out model.UserProfile
	err := w.profile.Update(ctx, func(p model.UserProfile) (model.UserProfile, error) {
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Avatar != nil {
			p.Avatar = *in.Avatar
		}
		if in.Bio != nil {
			p.Bio = *in.Bio
		}
		prefs := p.Prefs()
		if in.Theme != nil {
			prefs.Theme = *in.Theme
		}
		if in.Language != nil && *in.Language != "" {
			prefs.Language = *in.Language
		}
		p.SetPrefs(prefs)
		p.UserID = w.ns.UserID()
		p.UpdatedAt = w.now()
		out = p
		return p, nil
	})
	return out, err
}
