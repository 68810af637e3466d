package model

import (
	"time"

	"github.com/lib/pq"
)

// 群组创建方
const (
	GroupCreatedBySystem = "system"
	GroupCreatedByUser   = "user"
)

// Group 智能体群组
type Group struct {
	RowID       uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID      string         `gorm:"size:36;not null;uniqueIndex:idx_groups_user_group" json:"-"`
	ID          string         `gorm:"column:group_id;size:64;not null;uniqueIndex:idx_groups_user_group" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Icon        string         `gorm:"size:64" json:"icon"`
	Color       string         `gorm:"size:128" json:"color"`
	Members     pq.StringArray `gorm:"type:text[]" json:"members"`
	IsDefault   bool           `json:"is_default"`
	CreatedBy   string         `gorm:"size:16;default:user" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName 指定表名
func (Group) TableName() string {
	return "groups"
}

// ResolveMembers 解析成员，忽略已不存在的智能体
func (g *Group) ResolveMembers(agents []Agent) []Agent {
	members := make([]Agent, 0, len(g.Members))
	for _, id := range g.Members {
		if a, ok := FindAgent(agents, id); ok {
			members = append(members, a)
		}
	}
	return members
}

// FindGroup 按 ID 查找群组
func FindGroup(groups []Group, id string) (Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}
