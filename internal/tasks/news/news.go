// Package news holds the scheduled jobs of the aggregation pipeline.
package news

import (
	"context"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/internal/provider"
	"github.com/iceymoss/go-newsfeed/internal/tasks"
	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
	"github.com/iceymoss/go-newsfeed/pkg/logger"

	"go.uber.org/zap"
)

// 任务名，同时也是 handler
const (
	TaskFetch       = "news:fetch"
	TaskFetchAll    = "news:fetch_all"
	TaskCleanup     = "news:cleanup"
	TaskSyncSources = "news:sync_sources"
)

// 默认调度
const (
	FetchAllCron    = "0 0 * * * *"  // 每小时
	CleanupCron     = "0 30 3 * * *" // 每天 03:30
	SyncSourcesCron = "0 0 4 * * *"  // 每天 04:00
)

type Fetcher interface {
	Providers() []string
	Provider(name string) (provider.Provider, bool)
	FetchFromProvider(ctx context.Context, name string, params provider.Params) int
	FetchEach(ctx context.Context, params provider.Params) map[string]int
}

type Purger interface {
	Run(ctx context.Context, retentionDays int) (int64, error)
}

type SourceStore interface {
	FindOrCreateSource(ctx context.Context, name string) (*objects.Source, error)
}

type Deps struct {
	Aggregator Fetcher
	Cleanup    Purger
	Sources    SourceStore
	Logger     *zap.Logger
}

// Register 挂载新闻任务。fetch_all、cleanup、sync_sources 随进程自动调度，
// news:fetch 需要 provider 参数，只能由配置、数据库或手动触发
func Register(r *tasks.Registry, d Deps) {
	l := logger.OrDefault(d.Logger, "news")

	r.Register(TaskFetch, func() core.Task {
		return &FetchTask{agg: d.Aggregator, logger: l}
	})
	r.RegisterAuto(core.JobSpec{
		Name:    TaskFetchAll,
		Cron:    FetchAllCron,
		Retries: 3,
		Timeout: 300 * time.Second,
	}, func() core.Task {
		return &FetchAllTask{agg: d.Aggregator, logger: l}
	})
	r.RegisterAuto(core.JobSpec{
		Name:    TaskCleanup,
		Cron:    CleanupCron,
		Retries: 1,
		Timeout: 60 * time.Second,
	}, func() core.Task {
		return &CleanupTask{cleanup: d.Cleanup}
	})
	r.RegisterAuto(core.JobSpec{
		Name:    TaskSyncSources,
		Cron:    SyncSourcesCron,
		Retries: 1,
		Timeout: 120 * time.Second,
	}, func() core.Task {
		return &SyncSourcesTask{agg: d.Aggregator, sources: d.Sources, logger: l}
	})
}
