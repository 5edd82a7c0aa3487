package core

import (
	"time"

	"github.com/google/uuid"
)

// CanonicalArticle is the provider-agnostic record produced by normalization and
// consumed by storage. It is never persisted directly.
type CanonicalArticle struct {
	ExternalID  string     `json:"external_id"`
	SourceName  string     `json:"source"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Content     *string    `json:"content,omitempty"`
	URL         string     `json:"url"`
	ImageURL    *string    `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Authors     []string   `json:"authors"`
	Categories  []string   `json:"categories"`
}

// ChangeKind tells consumers whether an article row was inserted or updated.
type ChangeKind string

const (
	ArticleCreated ChangeKind = "created"
	ArticleUpdated ChangeKind = "updated"
	ArticleDeleted ChangeKind = "deleted"
)

// ArticleChanged is emitted after an article write commits.
type ArticleChanged struct {
	EventID    uuid.UUID  `json:"event_id"`
	Kind       ChangeKind `json:"kind"`
	ArticleID  uint64     `json:"article_id"`
	ExternalID string     `json:"external_id"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewArticleChanged stamps a new event.
func NewArticleChanged(kind ChangeKind, id uint64, externalID string, at time.Time) ArticleChanged {
	return ArticleChanged{
		EventID:    uuid.New(),
		Kind:       kind,
		ArticleID:  id,
		ExternalID: externalID,
		OccurredAt: at,
	}
}
