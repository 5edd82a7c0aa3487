package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/internal/metrics"
	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
	"github.com/iceymoss/go-newsfeed/pkg/logger"
	"github.com/iceymoss/go-newsfeed/pkg/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 5 * time.Minute
	DefaultBackoff = 5 * time.Second
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobRunning  = errors.New("job is already running")
)

// TaskSource resolves handler names to task instances.
type TaskSource interface {
	GetTask(name string) (core.Task, error)
}

// RunLog persists one row per attempt.
type RunLog interface {
	CreateLog(ctx context.Context, log *objects.SysJobLog) error
	UpdateLog(ctx context.Context, log *objects.SysJobLog) error
}

// JobStore lists jobs defined in the database.
type JobStore interface {
	GetActiveJobs(ctx context.Context) ([]*objects.SysJob, error)
}

type job struct {
	spec  core.JobSpec
	task  core.Task
	entry cron.EntryID
}

type Scheduler struct {
	cron    *cron.Cron
	Stats   *StatManager
	tasks   TaskSource
	runLog  RunLog
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     utils.Clock
	backoff time.Duration
	jobs    map[string]*job
}

type Option func(*Scheduler)

func WithRunLog(l RunLog) Option {
	return func(s *Scheduler) { s.runLog = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithClock(c utils.Clock) Option {
	return func(s *Scheduler) { s.now = c }
}

// WithBackoff sets the pause between retry attempts.
func WithBackoff(d time.Duration) Option {
	return func(s *Scheduler) { s.backoff = d }
}

func NewScheduler(tasks TaskSource, l *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		Stats:   NewStatManager(),
		tasks:   tasks,
		logger:  logger.OrDefault(l, "scheduler"),
		now:     utils.SystemClock,
		backoff: DefaultBackoff,
		jobs:    make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob 添加任务；同名任务不可重复添加。须在 Start 之前调用
func (s *Scheduler) AddJob(spec core.JobSpec) error {
	if spec.Handler == "" {
		spec.Handler = spec.Name
	}
	if _, dup := s.jobs[spec.Name]; dup {
		return fmt.Errorf("job %q already scheduled", spec.Name)
	}
	if spec.Timeout <= 0 {
		spec.Timeout = DefaultTimeout
	}
	if spec.Retries < 0 {
		spec.Retries = 0
	}

	// 1. 获取任务实现
	taskInstance, err := s.tasks.GetTask(spec.Handler)
	if err != nil {
		return err
	}

	// 2. 加入 Cron
	j := &job{spec: spec, task: taskInstance}
	entryID, err := s.cron.AddFunc(spec.Cron, func() {
		if _, err := s.run(j); err != nil && !errors.Is(err, ErrJobRunning) {
			s.logger.Error("scheduled job failed", zap.String("job", spec.Name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec.Name, err)
	}

	// 3. 初始化状态，保存引用以便手动触发
	j.entry = entryID
	s.jobs[spec.Name] = j
	s.Stats.Set(spec.Name, &JobStats{
		Name:        spec.Name,
		Handler:     spec.Handler,
		CronExpr:    spec.Cron,
		Status:      StatusIdle,
		LastResult:  "Pending",
		Retries:     spec.Retries,
		Source:      spec.Source,
		NextRunTime: s.nextRun(j),
	})
	return nil
}

func (s *Scheduler) nextRun(j *job) string {
	e := s.cron.Entry(j.entry)
	if e.Schedule == nil {
		return ""
	}
	return e.Schedule.Next(s.now()).Format(timeLayout)
}

// LoadFromStore schedules every active sys_jobs row. Bad rows are logged and skipped.
func (s *Scheduler) LoadFromStore(ctx context.Context, store JobStore) (int, error) {
	rows, err := store.GetActiveJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load sys_jobs: %w", err)
	}
	loaded := 0
	for _, row := range rows {
		err := s.AddJob(core.JobSpec{
			Name:    row.Name,
			Handler: row.ServiceHandler,
			Cron:    row.CronExpr,
			Params:  row.Params,
			Retries: row.Retries,
			Source:  core.JobSourceDB,
		})
		if err != nil {
			s.logger.Warn("db job not scheduled", zap.String("job", row.Name), zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}

// run executes j with its retry budget and returns the run id.
func (s *Scheduler) run(j *job) (string, error) {
	name := j.spec.Name
	runID := uuid.NewString()
	start := s.now()
	if !s.Stats.TryStart(name, start, runID) {
		s.logger.Warn("job still running, trigger skipped", zap.String("job", name))
		return "", ErrJobRunning
	}

	l := s.logger.With(zap.String("job", name), zap.String("run_id", runID))
	l.Info("job started", zap.String("handler", j.spec.Handler))

	var err error
	for attempt := 1; attempt <= j.spec.Retries+1; attempt++ {
		if attempt > 1 && s.backoff > 0 {
			time.Sleep(s.backoff)
		}
		err = s.attempt(j, runID, attempt)
		if err == nil {
			break
		}
		l.Warn("job attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	}

	elapsed := s.now().Sub(start)
	next := s.nextRun(j)
	if err != nil {
		s.Stats.Update(name, func(st *JobStats) {
			st.Status = StatusError
			st.LastResult = fmt.Sprintf("Error: %v", err)
			st.NextRunTime = next
		})
		s.metrics.ObserveJob(name, "failed", elapsed)
		l.Error("job failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return runID, err
	}

	s.Stats.Update(name, func(st *JobStats) {
		st.Status = StatusIdle
		st.LastResult = "Success"
		st.NextRunTime = next
	})
	s.metrics.ObserveJob(name, "success", elapsed)
	l.Info("job finished", zap.Duration("elapsed", elapsed))
	return runID, nil
}

func (s *Scheduler) attempt(j *job, runID string, attempt int) error {
	ctx, cancel := context.WithTimeout(context.Background(), j.spec.Timeout)
	defer cancel()

	start := s.now()
	entry := &objects.SysJobLog{
		RunID:       runID,
		JobName:     j.spec.Name,
		HandlerName: j.spec.Handler,
		Attempt:     attempt,
		Status:      objects.JobLogRunning,
		StartTime:   start,
	}
	s.writeLog(ctx, entry, true)

	err := j.task.Run(ctx, j.spec.Params)

	end := s.now()
	entry.EndTime = &end
	entry.DurationMs = end.Sub(start).Milliseconds()
	entry.Status = objects.JobLogSuccess
	if err != nil {
		entry.Status = objects.JobLogFailed
		entry.ErrorMsg = err.Error()
	}
	s.writeLog(context.Background(), entry, false)
	return err
}

func (s *Scheduler) writeLog(ctx context.Context, entry *objects.SysJobLog, create bool) {
	if s.runLog == nil {
		return
	}
	var err error
	if create {
		err = s.runLog.CreateLog(ctx, entry)
	} else {
		err = s.runLog.UpdateLog(ctx, entry)
	}
	if err != nil {
		s.logger.Warn("job log write failed", zap.String("job", entry.JobName), zap.Error(err))
	}
}

// ManualRun 手动触发，异步执行
func (s *Scheduler) ManualRun(name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrJobNotFound, name)
	}
	if st, _ := s.Stats.Get(name); st.Status == StatusRunning {
		return ErrJobRunning
	}
	go func() {
		if _, err := s.run(j); err != nil && !errors.Is(err, ErrJobRunning) {
			s.logger.Error("manual job failed", zap.String("job", name), zap.Error(err))
		}
	}()
	return nil
}

// RunNow 同步执行，返回本次运行 id
func (s *Scheduler) RunNow(name string) (string, error) {
	j, ok := s.jobs[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrJobNotFound, name)
	}
	return s.run(j)
}

// Jobs 所有任务的当前状态，按名称排序
func (s *Scheduler) Jobs() []JobStats {
	return s.Stats.GetAll()
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在运行的 cron 任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
