package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/internal/normalizer"
	"github.com/iceymoss/go-newsfeed/internal/provider"
	"github.com/iceymoss/go-newsfeed/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 3

// Store is the persistence side of the pipeline.
type Store interface {
	StoreArticles(ctx context.Context, records []core.CanonicalArticle) int
}

// Aggregator runs adapter -> normalizer -> storage per provider. Failures
// are absorbed by the stages, so every entry point returns a count.
type Aggregator struct {
	providers *provider.Registry
	store     Store
	workers   int
	logger    *zap.Logger
}

func NewAggregator(providers *provider.Registry, store Store, workers int, l *zap.Logger) *Aggregator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Aggregator{
		providers: providers,
		store:     store,
		workers:   workers,
		logger:    logger.OrDefault(l, "aggregator"),
	}
}

// Providers lists the registered provider names.
func (a *Aggregator) Providers() []string {
	return a.providers.Names()
}

// Provider looks up a registered adapter.
func (a *Aggregator) Provider(name string) (provider.Provider, bool) {
	return a.providers.Get(name)
}

// FetchFromProvider returns 0 when name is not registered.
func (a *Aggregator) FetchFromProvider(ctx context.Context, name string, params provider.Params) int {
	p, ok := a.providers.Get(name)
	if !ok {
		a.logger.Warn("provider not registered", zap.String("provider", name))
		return 0
	}
	return a.ingest(ctx, name, p.FetchArticles(ctx, params))
}

// FetchFromAllProviders sums the stored counts of every provider.
func (a *Aggregator) FetchFromAllProviders(ctx context.Context, params provider.Params) int {
	return sum(a.FetchEach(ctx, params))
}

// FetchEach fetches every provider concurrently and reports the stored count per provider.
func (a *Aggregator) FetchEach(ctx context.Context, params provider.Params) map[string]int {
	return a.fanOut(ctx, func(ctx context.Context, p provider.Provider) []json.RawMessage {
		return p.FetchArticles(ctx, params)
	})
}

// SearchAcrossProviders runs query on every provider and stores the results.
func (a *Aggregator) SearchAcrossProviders(ctx context.Context, query string, filters provider.Params) int {
	counts := a.fanOut(ctx, func(ctx context.Context, p provider.Provider) []json.RawMessage {
		return p.SearchArticles(ctx, query, filters)
	})
	return sum(counts)
}

func (a *Aggregator) fanOut(ctx context.Context, fetch func(context.Context, provider.Provider) []json.RawMessage) map[string]int {
	var (
		mu     sync.Mutex
		counts = make(map[string]int, a.providers.Len())
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, p := range a.providers.All() {
		g.Go(func() error {
			n := a.ingest(gctx, p.Name(), fetch(gctx, p))
			mu.Lock()
			counts[p.Name()] = n
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return counts
}

func (a *Aggregator) ingest(ctx context.Context, name string, records []json.RawMessage) int {
	if len(records) == 0 {
		a.logger.Info("provider returned no articles", zap.String("provider", name))
		return 0
	}
	canonical, err := normalizer.Normalize(records, name)
	if err != nil {
		a.logger.Error("normalize failed", zap.String("provider", name), zap.Error(err))
		return 0
	}
	stored := a.store.StoreArticles(ctx, canonical)
	a.logger.Info("provider articles stored",
		zap.String("provider", name),
		zap.Int("fetched", len(records)),
		zap.Int("stored", stored))
	return stored
}

func sum(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
