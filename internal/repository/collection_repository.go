package repository

import (
	"context"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"gorm.io/gorm"
)

// CollectionRepository 列表数据域的保存标记
type CollectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository 创建保存标记仓库
func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Mark 记录用户保存过 key，重复调用只更新时间
func (r *CollectionRepository) Mark(ctx context.Context, userID, key string) error {
	row := model.SavedCollection{UserID: userID, Key: key}
	return r.db.WithContext(ctx).Clauses(onConflict("user_id", "key_name")).Create(&row).Error
}

// Saved 用户是否保存过 key
func (r *CollectionRepository) Saved(ctx context.Context, userID, key string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.SavedCollection{}).
		Where("user_id = ? AND key_name = ?", userID, key).Count(&n).Error
	return n > 0, err
}

// Unmark 删除标记，之后空列表重新视为从未保存
func (r *CollectionRepository) Unmark(ctx context.Context, userID, key string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND key_name = ?", userID, key).
		Delete(&model.SavedCollection{}).Error
}
