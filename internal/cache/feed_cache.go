// Package cache stores rendered feed pages in Redis. Entries are never
// deleted explicitly: every key embeds a global and a per-user generation
// counter, and bumping a counter makes older entries unreachable until
// their TTL expires.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	DefaultTTL = 30 * time.Minute

	keyPrefix     = "newsfeed:feed"
	globalGenKey  = keyPrefix + ":gen"
	userGenFormat = keyPrefix + ":user:%d:gen"
)

// FeedCache is a Redis-backed page cache.
type FeedCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewFeedCache(rdb *redis.Client, ttl time.Duration, l *zap.Logger) *FeedCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FeedCache{rdb: rdb, ttl: ttl, logger: logger.OrDefault(l, "feed-cache")}
}

// Key resolves the current key for a user's page. Resolve it before
// computing the page so that a write racing with the computation lands
// under a stale generation.
func (c *FeedCache) Key(ctx context.Context, userID uint, page, perPage int) (string, error) {
	vals, err := c.rdb.MGet(ctx, globalGenKey, userGenKey(userID)).Result()
	if err != nil {
		return "", fmt.Errorf("read feed generations: %w", err)
	}
	return fmt.Sprintf("%s:%s:%s:%d:%d:%d", keyPrefix, genOf(vals[0]), genOf(vals[1]), userID, page, perPage), nil
}

// Get decodes the entry at key into dst and reports whether it was found.
func (c *FeedCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode feed entry: %w", err)
	}
	return true, nil
}

func (c *FeedCache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode feed entry: %w", err)
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// InvalidateAll drops every cached page.
func (c *FeedCache) InvalidateAll(ctx context.Context) error {
	return c.rdb.Incr(ctx, globalGenKey).Err()
}

// InvalidateUser drops one user's cached pages.
func (c *FeedCache) InvalidateUser(ctx context.Context, userID uint) error {
	return c.rdb.Incr(ctx, userGenKey(userID)).Err()
}

// OnArticleChanged is an events.Handler; any article write may reorder any feed.
func (c *FeedCache) OnArticleChanged(ctx context.Context, evt core.ArticleChanged) {
	if err := c.InvalidateAll(ctx); err != nil {
		c.logger.Warn("feed cache invalidation failed",
			zap.String("event_id", evt.EventID.String()),
			zap.Error(err))
	}
}

func userGenKey(userID uint) string {
	return fmt.Sprintf(userGenFormat, userID)
}

func genOf(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "0"
}
