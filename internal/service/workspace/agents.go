package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/chat"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// AgentInput 创建或修改智能体
type AgentInput struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Specialty     string `json:"specialty"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	Color         string `json:"color"`
	Experience    string `json:"experience"`
	Approach      string `json:"approach"`
	Guidelines    string `json:"guidelines"`
	PersonaStyle  string `json:"persona_style"`
	Documentation string `json:"documentation"`
	Avatar        string `json:"avatar"`
	IsActive      *bool  `json:"is_active"`
}

func (in AgentInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &chat.ValidationError{Message: "Nome do agente é obrigatório"}
	}
	if strings.TrimSpace(in.Title) == "" {
		return &chat.ValidationError{Message: "Título do agente é obrigatório"}
	}
	return nil
}

func (in AgentInput) apply(a *model.Agent) {
	a.Name = strings.TrimSpace(in.Name)
	a.Title = strings.TrimSpace(in.Title)
	a.Specialty = in.Specialty
	a.Description = in.Description
	a.Icon = in.Icon
	a.Color = in.Color
	a.Experience = in.Experience
	a.Approach = in.Approach
	a.Guidelines = in.Guidelines
	a.PersonaStyle = in.PersonaStyle
	a.Documentation = in.Documentation
	a.Avatar = in.Avatar
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
}

// Agents 智能体列表，没有保存过时返回内置智能体
func (w *Workspace) Agents(ctx context.Context) []model.Agent {
	return w.agents.Value(ctx)
}

// Agent 按 ID 查找
func (w *Workspace) Agent(ctx context.Context, id string) (model.Agent, error) {
	a, ok := model.FindAgent(w.agents.Value(ctx), id)
	if !ok {
		return model.Agent{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return a, nil
}

// CreateAgent 创建智能体
func (w *Workspace) CreateAgent(ctx context.Context, in AgentInput) (model.Agent, error) {
	if err := in.validate(); err != nil {
		return model.Agent{}, err
	}
	a := model.Agent{
		ID:        uuid.NewString(),
		IsActive:  true,
		CreatedAt: w.now(),
	}
	in.apply(&a)

	err := w.agents.Update(ctx, func(cur []model.Agent) ([]model.Agent, error) {
		next := make([]model.Agent, 0, len(cur)+1)
		next = append(next, cur...)
		return append(next, a), nil
	})
	return a, err
}

// UpdateAgent 修改智能体
func (w *Workspace) UpdateAgent(ctx context.Context, id string, in AgentInput) (model.Agent, error) {
	if err := in.validate(); err != nil {
		return model.Agent{}, err
	}
	var out model.Agent
	err := w.agents.Update(ctx, func(cur []model.Agent) ([]model.Agent, error) {
		next := make([]model.Agent, len(cur))
		copy(next, cur)
		for i := range next {
			if next[i].ID == id {
				in.apply(&next[i])
				out = next[i]
				return next, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	})
	return out, err
}

// DeleteAgent 删除智能体及其对话记录，群组中残留的成员 ID 在解析时被忽略
func (w *Workspace) DeleteAgent(ctx context.Context, id string) error {
	err := w.agents.Update(ctx, func(cur []model.Agent) ([]model.Agent, error) {
		next := make([]model.Agent, 0, len(cur))
		for _, a := range cur {
			if a.ID != id {
				next = append(next, a)
			}
		}
		if len(next) == len(cur) {
			return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
		}
		return next, nil
	})
	if err != nil {
		return err
	}

	w.removeElement(ctx, storage.AgentsKey(), id)
	return w.removeConversation(ctx, storage.AgentMessagesKey(id))
}

// removeElement 远程后端按行保存，需要单独删除该行
func (w *Workspace) removeElement(ctx context.Context, key storage.Key, id string) {
	remover, ok := w.deps.Registry.For(key.Domain).(storage.ElementRemover)
	if !ok {
		return
	}
	if err := remover.RemoveElement(ctx, w.ns.UserID(), key, id); err != nil {
		slog.Warn("remove remote element failed", "key", key.Name(), "id", id, "error", err)
	}
}
