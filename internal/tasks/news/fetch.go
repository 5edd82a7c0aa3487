package news

import (
	"context"
	"errors"
	"fmt"

	"github.com/iceymoss/go-newsfeed/internal/provider"

	"go.uber.org/zap"
)

var errMissingProvider = errors.New("param provider is required")

// FetchTask 抓取单个 provider，params 里除 provider 外的键作为查询参数
type FetchTask struct {
	agg    Fetcher
	logger *zap.Logger
}

func (t *FetchTask) Identifier() string { return TaskFetch }

func (t *FetchTask) Run(ctx context.Context, params map[string]any) error {
	name, _ := params["provider"].(string)
	if name == "" {
		return errMissingProvider
	}
	if _, ok := t.agg.Provider(name); !ok {
		return fmt.Errorf("provider %q is not registered", name)
	}

	query := provider.ParamsFrom(params)
	delete(query, "provider")

	stored := t.agg.FetchFromProvider(ctx, name, query)
	t.logger.Info("provider fetched", zap.String("provider", name), zap.Int("stored", stored))
	return ctx.Err()
}

// FetchAllTask 抓取全部 provider；单个 provider 失败只影响它自己的计数
type FetchAllTask struct {
	agg    Fetcher
	logger *zap.Logger
}

func (t *FetchAllTask) Identifier() string { return TaskFetchAll }

func (t *FetchAllTask) Run(ctx context.Context, params map[string]any) error {
	counts := t.agg.FetchEach(ctx, provider.ParamsFrom(params))
	total := 0
	fields := make([]zap.Field, 0, len(counts)+1)
	for name, n := range counts {
		total += n
		fields = append(fields, zap.Int(name, n))
	}
	t.logger.Info("all providers fetched", append(fields, zap.Int("total", total))...)
	// 超时算失败，交给调度器重试
	return ctx.Err()
}
