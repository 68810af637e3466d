package model

import "time"

// Agent 智能体人设，归属于单个用户
type Agent struct {
	RowID         uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID        string    `gorm:"size:36;not null;uniqueIndex:idx_agents_user_agent" json:"-"`
	ID            string    `gorm:"column:agent_id;size:64;not null;uniqueIndex:idx_agents_user_agent" json:"id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	Title         string    `gorm:"size:255" json:"title"`
	Specialty     string    `gorm:"size:255" json:"specialty"`
	Description   string    `gorm:"type:text" json:"description"`
	Icon          string    `gorm:"size:64" json:"icon"`
	Color         string    `gorm:"size:128" json:"color"`
	Experience    string    `gorm:"type:text" json:"experience"`
	Approach      string    `gorm:"type:text" json:"approach"`
	Guidelines    string    `gorm:"type:text" json:"guidelines"`
	PersonaStyle  string    `gorm:"type:text" json:"persona_style"`
	Documentation string    `gorm:"type:text" json:"documentation"`
	IsActive      bool      `json:"is_active"`
	Avatar        string    `gorm:"size:500" json:"avatar,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName 指定表名
func (Agent) TableName() string {
	return "agents"
}

// FindAgent 按 ID 查找智能体
func FindAgent(agents []Agent, id string) (Agent, bool) {
	for _, a := range agents {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}
