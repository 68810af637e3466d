package model

import "time"

// AgentInteraction 用户与智能体的交互计数
type AgentInteraction struct {
	RowID               uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID              string     `gorm:"size:36;not null;uniqueIndex:idx_interactions_user_agent" json:"-"`
	AgentID             string     `gorm:"size:64;not null;uniqueIndex:idx_interactions_user_agent" json:"agent_id"`
	MessagesToday       int        `gorm:"default:0" json:"messages_today"`
	RandomQuestionsSent int        `gorm:"default:0" json:"random_questions_sent"`
	LastInteraction     time.Time  `json:"last_interaction"`
	LastRandomQuestion  *time.Time `json:"last_random_question,omitempty"`
	LastSelfMessage     *time.Time `json:"last_self_message,omitempty"`
}

// TableName 指定表名
func (AgentInteraction) TableName() string {
	return "agent_interactions"
}
