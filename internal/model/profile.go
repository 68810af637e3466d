package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// 默认偏好
const (
	DefaultTheme    = "light"
	DefaultLanguage = "pt-BR"
)

// Preferences 用户偏好
type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

// DefaultPreferences 返回默认偏好
func DefaultPreferences() Preferences {
	return Preferences{Theme: DefaultTheme, Language: DefaultLanguage}
}

// UserProfile 用户资料，每个用户恰好一份
type UserProfile struct {
	RowID       uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID      string         `gorm:"size:36;not null;uniqueIndex" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Email       string         `gorm:"size:255" json:"email,omitempty"`
	Avatar      string         `gorm:"size:500" json:"avatar,omitempty"`
	Bio         string         `gorm:"type:text" json:"bio,omitempty"`
	Preferences datatypes.JSON `gorm:"type:jsonb" json:"preferences,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (UserProfile) TableName() string {
	return "profiles"
}

// Prefs 解析偏好，缺失字段使用默认值
func (p *UserProfile) Prefs() Preferences {
	prefs := DefaultPreferences()
	if len(p.Preferences) > 0 {
		_ = json.Unmarshal(p.Preferences, &prefs)
	}
	return prefs
}

// SetPrefs 写入偏好
func (p *UserProfile) SetPrefs(prefs Preferences) {
	data, _ := json.Marshal(prefs)
	p.Preferences = datatypes.JSON(data)
}

// NewProfileFromUser 根据用户记录生成默认资料
func NewProfileFromUser(u *User, now time.Time) UserProfile {
	p := UserProfile{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.SetPrefs(DefaultPreferences())
	return p
}

// 未登录时使用的资料
const (
	DefaultProfileName = "Usuário"
	DefaultProfileBio  = "Olá! Sou um usuário do Chathy."
)

// DefaultUserProfile 返回匿名用户的默认资料
func DefaultUserProfile() UserProfile {
	p := UserProfile{
		Name:      DefaultProfileName,
		Bio:       DefaultProfileBio,
		CreatedAt: seedTime,
		UpdatedAt: seedTime,
	}
	p.SetPrefs(DefaultPreferences())
	return p
}
