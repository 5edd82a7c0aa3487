package objects

import "time"

// Source 新闻来源，按 slug 或 name 识别
type Source struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null;uniqueIndex:idx_sources_name" json:"name"`
	Slug          string    `gorm:"size:255;not null;uniqueIndex:idx_sources_slug" json:"slug"`
	APIIdentifier string    `gorm:"size:255" json:"api_identifier"`
	Description   *string   `gorm:"type:text" json:"description,omitempty"`
	URL           *string   `gorm:"size:512" json:"url,omitempty"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Source) TableName() string {
	return "sources"
}
