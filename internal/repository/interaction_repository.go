package repository

import (
	"context"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"gorm.io/gorm"
)

// InteractionRepository 交互计数数据访问
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository 创建交互计数仓库
func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// ListByUser 列出用户的全部计数
func (r *InteractionRepository) ListByUser(ctx context.Context, userID string) ([]model.AgentInteraction, error) {
	var rows []model.AgentInteraction
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("agent_id ASC").Find(&rows).Error
	return rows, err
}

// UpsertAll 逐个按 (user_id, agent_id) 写入
func (r *InteractionRepository) UpsertAll(ctx context.Context, userID string, rows []model.AgentInteraction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			row := rows[i]
			row.RowID = 0
			row.UserID = userID
			if err := tx.Clauses(onConflict("user_id", "agent_id")).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteAll 删除用户全部计数
func (r *InteractionRepository) DeleteAll(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.AgentInteraction{}).Error
}
