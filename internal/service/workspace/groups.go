package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/chat"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// GroupInput 创建或修改群组
type GroupInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
	Members     []string `json:"members"`
}

func (w *Workspace) validateGroup(ctx context.Context, in GroupInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &chat.ValidationError{Message: "Nome do grupo é obrigatório"}
	}
	if len(in.Members) == 0 {
		return &chat.ValidationError{Message: "Selecione pelo menos um agente"}
	}
	agents := w.agents.Value(ctx)
	for _, id := range in.Members {
		if _, ok := model.FindAgent(agents, id); !ok {
			return &chat.ValidationError{Message: fmt.Sprintf("Agente desconhecido: %s", id)}
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Groups 群组列表，没有保存过时返回内置群组
func (w *Workspace) Groups(ctx context.Context) []model.Group {
	return w.groups.Value(ctx)
}

// Group 按 ID 查找
func (w *Workspace) Group(ctx context.Context, id string) (model.Group, error) {
	g, ok := model.FindGroup(w.groups.Value(ctx), id)
	if !ok {
		return model.Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	return g, nil
}

// CreateGroup 创建用户群组
func (w *Workspace) CreateGroup(ctx context.Context, in GroupInput) (model.Group, error) {
	if err := w.validateGroup(ctx, in); err != nil {
		return model.Group{}, err
	}
	g := model.Group{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		Members:     dedupe(in.Members),
		CreatedBy:   model.GroupCreatedByUser,
		CreatedAt:   w.now(),
	}
	err := w.groups.Update(ctx, func(cur []model.Group) ([]model.Group, error) {
		next := make([]model.Group, 0, len(cur)+1)
		next = append(next, cur...)
		return append(next, g), nil
	})
	return g, err
}

// UpdateGroup 修改群组
func (w *Workspace) UpdateGroup(ctx context.Context, id string, in GroupInput) (model.Group, error) {
	if err := w.validateGroup(ctx, in); err != nil {
		return model.Group{}, err
	}
	var out model.Group
	err := w.groups.Update(ctx, func(cur []model.Group) ([]model.Group, error) {
		next := make([]model.Group, len(cur))
		copy(next, cur)
		for i := range next {
			if next[i].ID != id {
				continue
			}
			next[i].Name = strings.TrimSpace(in.Name)
			next[i].Description = in.Description
			next[i].Icon = in.Icon
			next[i].Color = in.Color
			next[i].Members = dedupe(in.Members)
			out = next[i]
			return next, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	})
	return out, err
}

// DeleteGroup 删除用户创建的群组及其对话记录，内置群组不可删除
func (w *Workspace) DeleteGroup(ctx context.Context, id string) error {
	err := w.groups.Update(ctx, func(cur []model.Group) ([]model.Group, error) {
		next := make([]model.Group, 0, len(cur))
		found := false
		for _, g := range cur {
			if g.ID != id {
				next = append(next, g)
				continue
			}
			if g.IsDefault {
				return nil, &chat.ValidationError{Message: "Grupos padrão não podem ser excluídos"}
			}
			found = true
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
		}
		return next, nil
	})
	if err != nil {
		return err
	}

	w.removeElement(ctx, storage.GroupsKey(), id)
	return w.removeConversation(ctx, storage.GroupMessagesKey(id))
}
