package model

import (
	"time"

	"github.com/lib/pq"
)

// Sender 消息发送方
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// ChatMessage 对话中的一条消息，单聊与群聊共用
type ChatMessage struct {
	RowID        uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID       string         `gorm:"size:36;not null;uniqueIndex:idx_messages_user_message" json:"-"`
	ID           string         `gorm:"column:message_id;size:64;not null;uniqueIndex:idx_messages_user_message" json:"id"`
	AgentID      string         `gorm:"size:64;index" json:"agent_id,omitempty"`
	GroupID      string         `gorm:"size:64;index" json:"group_id,omitempty"`
	Content      string         `gorm:"type:text" json:"content"`
	Sender       Sender         `gorm:"size:16;not null" json:"sender"`
	SenderName   string         `gorm:"size:100" json:"sender_name,omitempty"`
	SenderAvatar string         `gorm:"size:500" json:"sender_avatar,omitempty"`
	Mentions     pq.StringArray `gorm:"type:text[]" json:"mentions,omitempty"`
	AudioURL     string         `gorm:"size:500" json:"audio_url,omitempty"`
	ImageURL     string         `gorm:"size:500" json:"image_url,omitempty"`
	Timestamp    time.Time      `gorm:"index" json:"timestamp"`
}

// TableName 指定表名
func (ChatMessage) TableName() string {
	return "chat_messages"
}
