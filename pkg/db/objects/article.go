package objects

import (
	"time"
)

// Article 对应 articles 表，external_id 是幂等键
type Article struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID  string    `gorm:"size:255;not null;uniqueIndex:idx_articles_external_id" json:"external_id"`
	SourceID    uint      `gorm:"not null;index" json:"source_id"`
	Source      Source    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"source"`
	Title       string    `gorm:"size:500;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Content     *string   `gorm:"type:text" json:"content"`
	URL         string    `gorm:"size:700;not null;uniqueIndex:idx_articles_url" json:"url"`
	ImageURL    *string   `gorm:"size:1024" json:"image_url"`
	PublishedAt time.Time `gorm:"index;not null" json:"published_at"`

	Categories []Category `gorm:"many2many:article_category;constraint:OnDelete:CASCADE" json:"categories"`
	Authors    []Author   `gorm:"many2many:article_author;constraint:OnDelete:CASCADE" json:"authors"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Article) TableName() string {
	return "articles"
}

// CategorySlugs returns the slugs of the loaded categories.
func (a *Article) CategorySlugs() []string {
	out := make([]string, 0, len(a.Categories))
	for _, c := range a.Categories {
		out = append(out, c.Slug)
	}
	return out
}

// AuthorNames returns the display names of the loaded authors.
func (a *Article) AuthorNames() []string {
	out := make([]string, 0, len(a.Authors))
	for _, au := range a.Authors {
		out = append(out, au.Name)
	}
	return out
}
