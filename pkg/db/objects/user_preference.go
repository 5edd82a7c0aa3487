package objects

import "time"

// UserPreference 与用户一对一，三个列表以 JSON 存储
type UserPreference struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              uint      `gorm:"not null;uniqueIndex:idx_user_preferences_user" json:"user_id"`
	PreferredSources    []string  `gorm:"serializer:json;type:json" json:"preferred_sources"`
	PreferredCategories []string  `gorm:"serializer:json;type:json" json:"preferred_categories"`
	PreferredAuthors    []string  `gorm:"serializer:json;type:json" json:"preferred_authors"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}

// IsEmpty reports whether all three preference lists are empty.
func (p *UserPreference) IsEmpty() bool {
	return p == nil || len(p.PreferredSources) == 0 && len(p.PreferredCategories) == 0 && len(p.PreferredAuthors) == 0
}
