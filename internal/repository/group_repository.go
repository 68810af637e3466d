package repository

import (
	"context"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"gorm.io/gorm"
)

// GroupRepository 群组数据访问
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository 创建群组仓库
func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// ListByUser 列出用户的群组
func (r *GroupRepository) ListByUser(ctx context.Context, userID string) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, row_id ASC").
		Find(&groups).Error
	return groups, err
}

// UpsertAll 逐个按 (user_id, group_id) 写入
func (r *GroupRepository) UpsertAll(ctx context.Context, userID string, groups []model.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range groups {
			row := groups[i]
			row.RowID = 0
			row.UserID = userID
			if err := tx.Clauses(onConflict("user_id", "group_id")).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete 删除单个群组
func (r *GroupRepository) Delete(ctx context.Context, userID, groupID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&model.Group{}).Error
}

// DeleteAll 删除用户全部群组
func (r *GroupRepository) DeleteAll(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Group{}).Error
}
