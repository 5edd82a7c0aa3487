package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/audit"
	"github.com/iceymoss/go-newsfeed/internal/cache"
	"github.com/iceymoss/go-newsfeed/internal/conf"
	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/internal/engine"
	"github.com/iceymoss/go-newsfeed/internal/events"
	"github.com/iceymoss/go-newsfeed/internal/metrics"
	"github.com/iceymoss/go-newsfeed/internal/provider"
	"github.com/iceymoss/go-newsfeed/internal/repo"
	"github.com/iceymoss/go-newsfeed/internal/server"
	"github.com/iceymoss/go-newsfeed/internal/service"
	"github.com/iceymoss/go-newsfeed/internal/tasks"
	"github.com/iceymoss/go-newsfeed/internal/tasks/news"
	"github.com/iceymoss/go-newsfeed/pkg/db"
	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
	"github.com/iceymoss/go-newsfeed/pkg/logger"
	"github.com/iceymoss/go-newsfeed/pkg/transaction"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Warn("⚠️ .env not loaded", zap.Error(err))
	}

	cfg, err := conf.LoadConfig(conf.Path())
	if err != nil {
		logger.Fatal("❌ LoadConfig error", zap.Error(err))
	}

	if err := run(cfg); err != nil {
		logger.Fatal("❌ Server error", zap.Error(err))
	}
}

func run(cfg *conf.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := logger.Logger

	// 1. 存储
	gormDB, err := db.Open(cfg.Database, l.Named("gorm"))
	if err != nil {
		return err
	}
	if err := gormDB.AutoMigrate(objects.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	reportDB := sqlx.NewDb(sqlDB, cfg.Database.Driver)

	rdb, err := db.NewRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// 2. 指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 3. 审计日志
	articles := repo.NewArticleRepo(gormDB)
	apiLogs := repo.NewApiLogRepo(gormDB, reportDB)
	sink, closeSink, err := auditSink(ctx, cfg, apiLogs)
	if err != nil {
		return err
	}
	defer closeSink()
	recorder := audit.NewAsync(sink, cfg.Audit.Buffer, l.Named("audit"), audit.WithDropHook(m.IncAuditDropped))

	// 4. 事件与缓存
	bus := events.NewBus(l.Named("events"))
	feedCache := cache.NewFeedCache(rdb, cfg.Feed.CacheTTL, l.Named("cache"))
	bus.Subscribe(feedCache.OnArticleChanged)

	// 5. 聚合管道
	registry := provider.Build(cfg.ProviderConfigs(), provider.Deps{
		Recorder: recorder,
		Metrics:  m,
		Logger:   l.Named("provider"),
	})
	if registry.Len() == 0 {
		l.Warn("no provider is available, fetch jobs will store nothing")
	}
	storage := service.NewArticleStorage(articles, transaction.NewManager(gormDB), l.Named("storage"),
		service.WithPublisher(bus), service.WithStorageMetrics(m))
	aggregator := service.NewAggregator(registry, storage, cfg.Aggregator.Workers, l.Named("aggregator"))
	feed := service.NewFeedService(articles, repo.NewPreferenceRepo(gormDB), service.FeedConfig{
		WindowDays:     cfg.Feed.WindowDays,
		DefaultPerPage: cfg.Feed.PerPage,
	}, l.Named("feed"), service.WithPageCache(feedCache), service.WithFeedMetrics(m))
	cleanup := service.NewCleanup(articles, cfg.RetentionDays, bus, l.Named("cleanup"), nil)

	// 6. 任务与调度
	registryTasks := tasks.NewRegistry(l.Named("tasks"))
	news.Register(registryTasks, news.Deps{
		Aggregator: aggregator,
		Cleanup:    cleanup,
		Sources:    articles,
		Logger:     l.Named("news"),
	})

	jobs := repo.NewJobRepo(gormDB)
	scheduler := engine.NewScheduler(registryTasks, l.Named("scheduler"),
		engine.WithRunLog(jobs), engine.WithMetrics(m))
	scheduleJobs(ctx, scheduler, registryTasks, jobs, cfg.Jobs, l)

	// 7. HTTP
	srv := server.NewServer(server.Deps{
		Scheduler:  scheduler,
		Aggregator: aggregator,
		Feed:       feed,
		Stats:      apiLogs,
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:     l.Named("http"),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(cfg.Server.Port) }()

	l.Info("🌐 newsfeed running", zap.String("addr", cfg.Server.Port), zap.Strings("providers", registry.Names()))

	select {
	case err = <-errCh:
	case <-ctx.Done():
		l.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(err, srv.Shutdown(shutdownCtx), recorder.Close(shutdownCtx))
}

// scheduleJobs 依次挂载系统任务、YAML 任务和数据库任务，单个失败不影响启动
func scheduleJobs(ctx context.Context, s *engine.Scheduler, r *tasks.Registry, store *repo.JobRepo, jobs []conf.JobConfig, l *zap.Logger) {
	r.ApplyAutoJobs(s)

	for _, job := range jobs {
		if !job.Enable {
			continue
		}
		err := s.AddJob(core.JobSpec{
			Name:    job.Name,
			Handler: job.Handler(),
			Cron:    job.Cron,
			Params:  job.Params,
			Retries: job.Retries,
			Timeout: job.Timeout,
			Source:  core.JobSourceYAML,
		})
		if err != nil {
			l.Warn("⚠️ failed to schedule job", zap.String("job", job.Name), zap.Error(err))
			continue
		}
		l.Info("✅ job scheduled", zap.String("job", job.Name), zap.String("cron", job.Cron))
	}

	if _, err := s.LoadFromStore(ctx, store); err != nil {
		l.Warn("⚠️ sys_jobs not loaded", zap.Error(err))
	}
}

// auditSink 按配置选择审计日志落库位置
func auditSink(ctx context.Context, cfg *conf.Config, apiLogs *repo.ApiLogRepo) (audit.Sink, func(), error) {
	if cfg.Audit.Backend != "mongo" {
		return audit.NewGormSink(apiLogs), func() {}, nil
	}
	client, err := db.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}
	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	return audit.NewMongoSink(coll), func() { _ = client.Disconnect(context.Background()) }, nil
}
