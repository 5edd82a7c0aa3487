package cache

import (
	"context"
	"testing"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type page struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

func newCache(t *testing.T) (*FeedCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFeedCache(rdb, time.Minute, zap.NewNop()), mr
}

func TestSetThenGet(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	key, err := c.Key(ctx, 7, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "newsfeed:feed:0:0:7:1:20", key)

	var got page
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, key, page{Items: []string{"a"}, Total: 1}))
	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, page{Items: []string{"a"}, Total: 1}, got)

	mr.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit, "entry expires after ttl")
}

func TestArticleChangeInvalidatesEveryUser(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	k1, err := c.Key(ctx, 1, 1, 20)
	require.NoError(t, err)
	k2, err := c.Key(ctx, 2, 1, 20)
	require.NoError(t, err)

	c.OnArticleChanged(ctx, core.NewArticleChanged(core.ArticleCreated, 10, "newsapi_x", time.Now()))

	n1, err := c.Key(ctx, 1, 1, 20)
	require.NoError(t, err)
	n2, err := c.Key(ctx, 2, 1, 20)
	require.NoError(t, err)
	assert.NotEqual(t, k1, n1)
	assert.NotEqual(t, k2, n2)
}

func TestInvalidateUserIsScoped(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	k1, _ := c.Key(ctx, 1, 1, 20)
	k2, _ := c.Key(ctx, 2, 1, 20)

	require.NoError(t, c.InvalidateUser(ctx, 1))

	n1, _ := c.Key(ctx, 1, 1, 20)
	n2, _ := c.Key(ctx, 2, 1, 20)
	assert.NotEqual(t, k1, n1)
	assert.Equal(t, k2, n2)
}

func TestRedisDown(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()

	_, err := c.Key(context.Background(), 1, 1, 20)
	assert.Error(t, err)
	assert.NotPanics(t, func() {
		c.OnArticleChanged(context.Background(), core.ArticleChanged{})
	})
}
