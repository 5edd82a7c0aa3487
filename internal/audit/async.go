package audit

import (
	"context"
	"sync"
	"time"

	"github.com/iceymoss/go-newsfeed/pkg/logger"

	"go.uber.org/zap"
)

const (
	defaultBuffer       = 256
	defaultWriteTimeout = 5 * time.Second
)

// Async queues records on a buffered channel drained by one writer goroutine.
// When the buffer is full the record is dropped and counted.
type Async struct {
	sink    Sink
	queue   chan CallRecord
	logger  *zap.Logger
	onDrop  func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	timeout time.Duration
}

// AsyncOption configures Async.
type AsyncOption func(*Async)

// WithDropHook is called every time a record is dropped.
func WithDropHook(fn func()) AsyncOption {
	return func(a *Async) { a.onDrop = fn }
}

// NewAsync starts the writer goroutine. buffer <= 0 uses the default size.
func NewAsync(sink Sink, buffer int, l *zap.Logger, opts ...AsyncOption) *Async {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	a := &Async{
		sink:    sink,
		queue:   make(chan CallRecord, buffer),
		logger:  logger.OrDefault(l, "audit"),
		timeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// Record enqueues rec without blocking.
func (a *Async) Record(_ context.Context, rec CallRecord) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.drop(rec, "closed")
		return
	}
	select {
	case a.queue <- rec:
	default:
		a.drop(rec, "buffer full")
	}
}

func (a *Async) drop(rec CallRecord, reason string) {
	if a.onDrop != nil {
		a.onDrop()
	}
	a.logger.Warn("audit record dropped",
		zap.String("reason", reason),
		zap.String("provider", rec.Provider),
		zap.String("endpoint", rec.Endpoint))
}

func (a *Async) run() {
	defer a.wg.Done()
	for rec := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.sink.Write(ctx, rec); err != nil {
			a.logger.Error("audit write failed",
				zap.String("provider", rec.Provider),
				zap.String("endpoint", rec.Endpoint),
				zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting records and waits for the queue to drain or ctx to end.
func (a *Async) Close(ctx context.Context) error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
