package tasks

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/pkg/logger"

	"go.uber.org/zap"
)

// ErrTaskNotFound is returned for a handler name nobody registered.
var ErrTaskNotFound = errors.New("task implementation not found")

type Scheduler interface {
	AddJob(spec core.JobSpec) error
}

// AutoJob 定义一个“自启动任务”的结构
type AutoJob struct {
	Spec    core.JobSpec
	Creator core.TaskCreator
}

// Registry 任务实现注册表
type Registry struct {
	mu       sync.RWMutex
	creators map[string]core.TaskCreator // 普通任务注册（供配置、数据库、手动触发使用）
	autoJobs []*AutoJob                  // 自动任务列表（启动时直接挂载）
	logger   *zap.Logger
}

func NewRegistry(l *zap.Logger) *Registry {
	return &Registry{
		creators: make(map[string]core.TaskCreator),
		logger:   logger.OrDefault(l, "tasks"),
	}
}

func (r *Registry) Register(name string, creator core.TaskCreator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creators[name] = creator
}

// RegisterAuto 注册并自动启动，spec.Handler 为空时使用 spec.Name
func (r *Registry) RegisterAuto(spec core.JobSpec, creator core.TaskCreator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spec.Handler == "" {
		spec.Handler = spec.Name
	}
	spec.Source = core.JobSourceSystem

	// 1. 先注册到普通池子（这样也能被配置引用和手动触发）
	r.creators[spec.Handler] = creator

	// 2. 加入自动启动列表
	r.autoJobs = append(r.autoJobs, &AutoJob{Spec: spec, Creator: creator})
}

func (r *Registry) GetTask(name string) (core.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	creator, ok := r.creators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	return creator(), nil
}

// Names returns every registered handler, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyAutoJobs 把自动任务挂到调度器上，单个失败不影响其他任务
func (r *Registry) ApplyAutoJobs(sched Scheduler) int {
	r.mu.RLock()
	jobs := make([]*AutoJob, len(r.autoJobs))
	copy(jobs, r.autoJobs)
	r.mu.RUnlock()

	loaded := 0
	for _, job := range jobs {
		if err := sched.AddJob(job.Spec); err != nil {
			r.logger.Error("auto job not loaded", zap.String("job", job.Spec.Name), zap.Error(err))
			continue
		}
		loaded++
		r.logger.Info("auto job loaded", zap.String("job", job.Spec.Name), zap.String("cron", job.Spec.Cron))
	}
	return loaded
}
