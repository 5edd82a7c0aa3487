package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/pkg/logger"
	"github.com/iceymoss/go-newsfeed/pkg/utils"

	"go.uber.org/zap"
)

const DefaultRetentionDays = 90

type articlePurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleanup removes articles published before the retention window.
type Cleanup struct {
	articles      articlePurger
	retentionDays int
	events        Publisher
	logger        *zap.Logger
	now           utils.Clock
}

func NewCleanup(articles articlePurger, retentionDays int, events Publisher, l *zap.Logger, clock utils.Clock) *Cleanup {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Cleanup{
		articles:      articles,
		retentionDays: retentionDays,
		events:        events,
		logger:        logger.OrDefault(l, "cleanup"),
		now:           utils.OrSystem(clock),
	}
}

// Run deletes expired articles; retentionDays <= 0 uses the configured value.
func (c *Cleanup) Run(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = c.retentionDays
	}
	now := c.now()
	cutoff := utils.DaysAgo(now, retentionDays)

	deleted, err := c.articles.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete articles before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	c.logger.Info("old articles removed",
		zap.Int64("deleted", deleted),
		zap.Int("retention_days", retentionDays),
		zap.Time("cutoff", cutoff))

	if deleted > 0 && c.events != nil {
		c.events.Publish(ctx, core.NewArticleChanged(core.ArticleDeleted, 0, "", now))
	}
	return deleted, nil
}
