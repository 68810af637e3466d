package repository

import (
	"context"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"gorm.io/gorm"
)

// AgentRepository 智能体数据访问
type AgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository 创建智能体仓库
func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// ListByUser 列出用户的智能体
func (r *AgentRepository) ListByUser(ctx context.Context, userID string) ([]model.Agent, error) {
	var agents []model.Agent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, row_id ASC").
		Find(&agents).Error
	return agents, err
}

// UpsertAll 逐个按 (user_id, agent_id) 写入
func (r *AgentRepository) UpsertAll(ctx context.Context, userID string, agents []model.Agent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range agents {
			row := agents[i]
			row.RowID = 0
			row.UserID = userID
			if err := tx.Clauses(onConflict("user_id", "agent_id")).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete 删除单个智能体
func (r *AgentRepository) Delete(ctx context.Context, userID, agentID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND agent_id = ?", userID, agentID).
		Delete(&model.Agent{}).Error
}

// DeleteAll 删除用户全部智能体
func (r *AgentRepository) DeleteAll(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Agent{}).Error
}
