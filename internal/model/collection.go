package model

import "time"

// SavedCollection 标记用户保存过的列表数据域
// 行存储中列表为空时据此区分"从未保存"与"已清空"
type SavedCollection struct {
	RowID     uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_collections_user_key" json:"-"`
	Key       string    `gorm:"column:key_name;size:160;not null;uniqueIndex:idx_collections_user_key" json:"key"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (SavedCollection) TableName() string {
	return "saved_collections"
}
