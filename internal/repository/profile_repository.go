package repository

import (
	"context"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"gorm.io/gorm"
)

// ProfileRepository 用户资料数据访问
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建资料仓库
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get 获取用户资料
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

// Upsert 按 user_id 写入资料
func (r *ProfileRepository) Upsert(ctx context.Context, profile *model.UserProfile) error {
	return r.db.WithContext(ctx).Clauses(onConflict("user_id")).Create(profile).Error
}

// Delete 删除资料
func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserProfile{}).Error
}
