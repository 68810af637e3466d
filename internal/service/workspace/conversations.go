package workspace

import (
	"context"
	"fmt"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/chat"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// conversation 同一工作区内同一对话共享一个句柄
func (w *Workspace) conversation(key storage.Key) *storage.Handle[[]model.ChatMessage] {
	w.mu.Lock()
	defer w.mu.Unlock()
	name := key.Name()
	if h, ok := w.convs[name]; ok {
		return h
	}
	h := storage.Open(w.deps.Registry, w.ns, key, []model.ChatMessage{})
	w.convs[name] = h
	return h
}

// AgentChat 打开与智能体的对话，首次打开时写入欢迎消息
// 欢迎消息保存失败时仍返回引擎，错误一并返回
func (w *Workspace) AgentChat(ctx context.Context, agentID string) (*chat.Engine, error) {
	agent, err := w.Agent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	log := w.conversation(storage.AgentMessagesKey(agentID))
	return chat.NewEngine(ctx, w.deps.Chat, w.ns, log, agent, w.Profile(ctx))
}

// GroupChat 打开群聊
func (w *Workspace) GroupChat(ctx context.Context, groupID string) (*chat.GroupEngine, error) {
	group, err := w.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	log := w.conversation(storage.GroupMessagesKey(groupID))
	return chat.NewGroupEngine(ctx, w.deps.Chat, w.ns, log, group, w.Agents(ctx), w.Profile(ctx))
}

// removeConversation 删除对话记录
func (w *Workspace) removeConversation(ctx context.Context, key storage.Key) error {
	w.mu.Lock()
	delete(w.convs, key.Name())
	w.mu.Unlock()

	backend := w.deps.Registry.For(key.Domain)
	if err := backend.Remove(ctx, w.ns.UserID(), key); err != nil {
		return fmt.Errorf("remove %s: %w", key.Name(), err)
	}
	return nil
}
