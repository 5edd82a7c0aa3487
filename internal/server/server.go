package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/engine"
	"github.com/iceymoss/go-newsfeed/internal/provider"
	"github.com/iceymoss/go-newsfeed/internal/repo"
	"github.com/iceymoss/go-newsfeed/internal/service"
	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
	"github.com/iceymoss/go-newsfeed/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobRunner is the part of the scheduler the API drives.
type JobRunner interface {
	ManualRun(name string) error
	Jobs() []engine.JobStats
	Start()
	Stop(ctx context.Context) error
}

type Aggregator interface {
	Providers() []string
	Provider(name string) (provider.Provider, bool)
	FetchFromProvider(ctx context.Context, name string, params provider.Params) int
	SearchAcrossProviders(ctx context.Context, query string, filters provider.Params) int
}

type Feed interface {
	RankFeed(ctx context.Context, userID uint, page, perPage int) (*service.FeedPage, error)
	Latest(ctx context.Context, page, perPage int) (*service.FeedPage, error)
	GetPreference(ctx context.Context, userID uint) (*objects.UserPreference, error)
	SavePreference(ctx context.Context, pref *objects.UserPreference) error
}

type ProviderStats interface {
	ProviderStats(ctx context.Context, since time.Time) ([]repo.ProviderStat, error)
}

type Deps struct {
	Scheduler  JobRunner
	Aggregator Aggregator
	Feed       Feed
	Stats      ProviderStats
	Metrics    http.Handler // nil 时不暴露 /metrics
	Logger     *zap.Logger
}

type Server struct {
	engine    *gin.Engine
	http      *http.Server
	scheduler JobRunner
	logger    *zap.Logger
}

func NewServer(d Deps) *Server {
	l := logger.OrDefault(d.Logger, "http")
	h := &handlers{
		scheduler:  d.Scheduler,
		aggregator: d.Aggregator,
		feed:       d.Feed,
		stats:      d.Stats,
		logger:     l,
	}

	router := gin.New()
	router.Use(gin.Recovery(), accessLog(l))

	api := router.Group("/api")
	{
		api.GET("/tasks", h.listTasks)
		api.POST("/tasks/:name/run", h.runTask)

		api.GET("/providers", h.listProviders)
		api.GET("/providers/stats", h.providerStats)
		api.POST("/providers/:name/fetch", h.fetchProvider)
		api.POST("/search", h.search)

		api.GET("/articles", h.latest)
		api.GET("/users/:id/feed", h.userFeed)
		api.GET("/users/:id/preferences", h.getPreference)
		api.PUT("/users/:id/preferences", h.savePreference)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics))
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API not found"})
			return
		}
		c.Status(http.StatusNotFound)
	})

	return &Server{engine: router, scheduler: d.Scheduler, logger: l}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 启动调度器和 HTTP 服务，直到 Shutdown 被调用
func (s *Server) Run(addr string) error {
	s.scheduler.Start()

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 先停 HTTP 再等待正在执行的任务
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		errs = append(errs, s.http.Shutdown(ctx))
	}
	errs = append(errs, s.scheduler.Stop(ctx))
	return errors.Join(errs...)
}

func accessLog(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			l.Error("http request", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		l.Debug("http request", fields...)
	}
}
