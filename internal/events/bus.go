// Package events fans ArticleChanged notifications out to in-process consumers
// such as the feed cache.
package events

import (
	"context"
	"sync"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/pkg/logger"

	"go.uber.org/zap"
)

// Handler consumes one event. Handlers must not block for long.
type Handler func(ctx context.Context, evt core.ArticleChanged)

type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *zap.Logger
}

func NewBus(l *zap.Logger) *Bus {
	return &Bus{logger: logger.OrDefault(l, "events")}
}

// Subscribe registers h for every subsequent event.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers evt to every handler synchronously. A panicking handler is
// logged and skipped so publishers never fail.
func (b *Bus) Publish(ctx context.Context, evt core.ArticleChanged) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(ctx, h, evt)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, evt core.ArticleChanged) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("article event handler panicked",
				zap.Any("panic", r),
				zap.String("external_id", evt.ExternalID))
		}
	}()
	h(ctx, evt)
}
