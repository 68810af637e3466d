package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB          *gorm.DB // 直接访问数据库
	Auth        *AuthRepository
	Profile     *ProfileRepository
	Agent       *AgentRepository
	Group       *GroupRepository
	Message     *MessageRepository
	Interaction *InteractionRepository
	Collection  *CollectionRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:          db,
		Auth:        NewAuthRepository(db),
		Profile:     NewProfileRepository(db),
		Agent:       NewAgentRepository(db),
		Group:       NewGroupRepository(db),
		Message:     NewMessageRepository(db),
		Interaction: NewInteractionRepository(db),
		Collection:  NewCollectionRepository(db),
	}
}

// notFound 统一 gorm 的未找到错误
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// onConflict 按自然键冲突时更新全部列
func onConflict(columns ...string) clause.OnConflict {
	cols := make([]clause.Column, len(columns))
	for i, c := range columns {
		cols[i] = clause.Column{Name: c}
	}
	return clause.OnConflict{Columns: cols, UpdateAll: true}
}
