package repository

import (
	"context"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"gorm.io/gorm"
)

// MessageRepository 对话消息数据访问
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListByAgent 列出单聊消息，按时间顺序
func (r *MessageRepository) ListByAgent(ctx context.Context, userID, agentID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND agent_id = ? AND group_id = ?", userID, agentID, "").
		Order("timestamp ASC, row_id ASC").
		Find(&messages).Error
	return messages, err
}

// ListByGroup 列出群聊消息，按时间顺序
func (r *MessageRepository) ListByGroup(ctx context.Context, userID, groupID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Order("timestamp ASC, row_id ASC").
		Find(&messages).Error
	return messages, err
}

// UpsertAll 逐条按 (user_id, message_id) 写入
func (r *MessageRepository) UpsertAll(ctx context.Context, userID string, messages []model.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range messages {
			row := messages[i]
			row.RowID = 0
			row.UserID = userID
			if err := tx.Clauses(onConflict("user_id", "message_id")).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteByAgent 删除单聊全部消息
func (r *MessageRepository) DeleteByAgent(ctx context.Context, userID, agentID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND agent_id = ? AND group_id = ?", userID, agentID, "").
		Delete(&model.ChatMessage{}).Error
}

// DeleteByGroup 删除群聊全部消息
func (r *MessageRepository) DeleteByGroup(ctx context.Context, userID, groupID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&model.ChatMessage{}).Error
}

// Prune 删除对话中不在 keepIDs 内的消息，groupID 为空时作用于单聊
func (r *MessageRepository) Prune(ctx context.Context, userID, agentID, groupID string, keepIDs []string) error {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if groupID != "" {
		q = q.Where("group_id = ?", groupID)
	} else {
		q = q.Where("agent_id = ? AND group_id = ?", agentID, "")
	}
	if len(keepIDs) > 0 {
		q = q.Where("message_id NOT IN ?", keepIDs)
	}
	return q.Delete(&model.ChatMessage{}).Error
}
