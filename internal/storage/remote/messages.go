package remote

import (
	"context"
	"fmt"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/repository"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// MessagesBackend 对话记录，作用域为 agent:<id> 或 group:<id>，自然键 (user_id, message_id)
type MessagesBackend struct {
	store repository.MessageStore
	saved repository.CollectionStore
}

// NewMessagesBackend 创建消息后端
func NewMessagesBackend(store repository.MessageStore, saved repository.CollectionStore) *MessagesBackend {
	return &MessagesBackend{store: store, saved: saved}
}

func (b *MessagesBackend) Name() string { return "remote-messages" }

func (b *MessagesBackend) Load(ctx context.Context, userID string, key storage.Key) ([]byte, bool, error) {
	if userID == "" {
		return nil, false, storage.ErrNotAuthenticated
	}

	var (
		rows []model.ChatMessage
		err  error
	)
	if groupID, ok := key.GroupID(); ok {
		rows, err = b.store.ListByGroup(ctx, userID, groupID)
	} else if agentID, ok := key.AgentID(); ok {
		rows, err = b.store.ListByAgent(ctx, userID, agentID)
	} else {
		return nil, false, fmt.Errorf("unsupported messages scope %q", key.Scope)
	}
	if err != nil {
		return nil, false, err
	}
	return encodeList(ctx, b.saved, userID, key, rows)
}

// Save 按消息逐条 upsert，并删除已被历史裁剪掉的行
func (b *MessagesBackend) Save(ctx context.Context, userID string, key storage.Key, data []byte) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	messages, err := decode[[]model.ChatMessage](key, data)
	if err != nil {
		return err
	}

	agentID, groupID, err := scopeIDs(key)
	if err != nil {
		return err
	}
	ids := make([]string, len(messages))
	for i := range messages {
		messages[i].GroupID = groupID
		if groupID == "" {
			messages[i].AgentID = agentID
		}
		ids[i] = messages[i].ID
	}

	if err := b.store.UpsertAll(ctx, userID, messages); err != nil {
		return err
	}
	if err := b.store.Prune(ctx, userID, agentID, groupID, ids); err != nil {
		return err
	}
	return markSaved(ctx, b.saved, userID, key)
}

func (b *MessagesBackend) Remove(ctx context.Context, userID string, key storage.Key) error {
	if userID == "" {
		return storage.ErrNotAuthenticated
	}
	var err error
	if groupID, ok := key.GroupID(); ok {
		err = b.store.DeleteByGroup(ctx, userID, groupID)
	} else if agentID, ok := key.AgentID(); ok {
		err = b.store.DeleteByAgent(ctx, userID, agentID)
	} else {
		return fmt.Errorf("unsupported messages scope %q", key.Scope)
	}
	if err != nil {
		return err
	}
	return unmarkSaved(ctx, b.saved, userID, key)
}

func scopeIDs(key storage.Key) (agentID, groupID string, err error) {
	if id, ok := key.GroupID(); ok {
		return "", id, nil
	}
	if id, ok := key.AgentID(); ok {
		return id, "", nil
	}
	return "", "", fmt.Errorf("unsupported messages scope %q", key.Scope)
}
