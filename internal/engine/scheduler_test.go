package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/internal/repo"
	"github.com/iceymoss/go-newsfeed/internal/tasks"
	"github.com/iceymoss/go-newsfeed/internal/testutil"
	"github.com/iceymoss/go-newsfeed/pkg/db/objects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyTask fails the first `failures` runs.
type flakyTask struct {
	failures int32
	calls    int32
	params   atomic.Value
}

func (t *flakyTask) Identifier() string { return "test:flaky" }

func (t *flakyTask) Run(_ context.Context, params map[string]any) error {
	n := atomic.AddInt32(&t.calls, 1)
	t.params.Store(params)
	if n <= t.failures {
		return errors.New("upstream unavailable")
	}
	return nil
}

type blockingTask struct{}

func (blockingTask) Identifier() string { return "test:block" }

func (blockingTask) Run(ctx context.Context, _ map[string]any) error {
	<-ctx.Done()
	return ctx.Err()
}

func newScheduler(t *testing.T, registry *tasks.Registry) (*Scheduler, *repo.JobRepo) {
	jobs := repo.NewJobRepo(testutil.NewSQLite(t))
	s := NewScheduler(registry, zap.NewNop(), WithRunLog(jobs), WithBackoff(0))
	return s, jobs
}

func TestRunNowRetriesUntilSuccess(t *testing.T) {
	task := &flakyTask{failures: 2}
	registry := tasks.NewRegistry(zap.NewNop())
	registry.Register("test:flaky", func() core.Task { return task })
	s, jobs := newScheduler(t, registry)

	require.NoError(t, s.AddJob(core.JobSpec{
		Name: "flaky", Handler: "test:flaky", Cron: "@every 1h", Retries: 2,
		Params: map[string]any{"provider": "nyt"},
	}))

	runID, err := s.RunNow("flaky")
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.EqualValues(t, 3, atomic.LoadInt32(&task.calls))
	assert.Equal(t, map[string]any{"provider": "nyt"}, task.params.Load())

	st, ok := s.Stats.Get("flaky")
	require.True(t, ok)
	assert.Equal(t, StatusIdle, st.Status)
	assert.Equal(t, "Success", st.LastResult)
	assert.EqualValues(t, 1, st.RunCount)
	assert.Equal(t, runID, st.LastRunID)
	assert.NotEmpty(t, st.NextRunTime)

	logs, err := jobs.RecentLogs(context.Background(), "flaky", 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, objects.JobLogSuccess, logs[0].Status)
	assert.Equal(t, 3, logs[0].Attempt)
	assert.Equal(t, objects.JobLogFailed, logs[2].Status)
	assert.Equal(t, "upstream unavailable", logs[2].ErrorMsg)
	for _, l := range logs {
		assert.Equal(t, runID, l.RunID)
		assert.NotNil(t, l.EndTime)
	}
}

func TestRunNowExhaustsRetryBudget(t *testing.T) {
	task := &flakyTask{failures: 100}
	registry := tasks.NewRegistry(zap.NewNop())
	registry.Register("test:flaky", func() core.Task { return task })
	s, _ := newScheduler(t, registry)

	require.NoError(t, s.AddJob(core.JobSpec{Name: "cleanup", Handler: "test:flaky", Cron: "0 0 3 * * *", Retries: 1}))

	_, err := s.RunNow("cleanup")
	assert.Error(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&task.calls))

	st, _ := s.Stats.Get("cleanup")
	assert.Equal(t, StatusError, st.Status)
	assert.Contains(t, st.LastResult, "upstream unavailable")
}

func TestAttemptTimeout(t *testing.T) {
	registry := tasks.NewRegistry(zap.NewNop())
	registry.Register("test:block", func() core.Task { return blockingTask{} })
	s, _ := newScheduler(t, registry)

	require.NoError(t, s.AddJob(core.JobSpec{Name: "slow", Handler: "test:block", Cron: "@every 1h", Timeout: 20 * time.Millisecond}))

	_, err := s.RunNow("slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAddJobErrors(t *testing.T) {
	registry := tasks.NewRegistry(zap.NewNop())
	registry.Register("test:flaky", func() core.Task { return &flakyTask{} })
	s, _ := newScheduler(t, registry)

	err := s.AddJob(core.JobSpec{Name: "missing", Handler: "nope", Cron: "@every 1m"})
	assert.ErrorIs(t, err, tasks.ErrTaskNotFound)

	err = s.AddJob(core.JobSpec{Name: "bad-cron", Handler: "test:flaky", Cron: "every tuesday"})
	assert.Error(t, err)

	require.NoError(t, s.AddJob(core.JobSpec{Name: "test:flaky", Cron: "@every 1m"}))
	assert.Error(t, s.AddJob(core.JobSpec{Name: "test:flaky", Cron: "@every 1m"}), "duplicate name")

	assert.ErrorIs(t, s.ManualRun("unknown"), ErrJobNotFound)
	_, err = s.RunNow("unknown")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestManualRunIsAsync(t *testing.T) {
	task := &flakyTask{}
	registry := tasks.NewRegistry(zap.NewNop())
	registry.Register("test:flaky", func() core.Task { return task })
	s, _ := newScheduler(t, registry)
	require.NoError(t, s.AddJob(core.JobSpec{Name: "test:flaky", Cron: "@every 1h"}))

	require.NoError(t, s.ManualRun("test:flaky"))
	assert.Eventually(t, func() bool {
		st, _ := s.Stats.Get("test:flaky")
		return st.LastResult == "Success"
	}, time.Second, 5*time.Millisecond)
}

func TestLoadFromStoreAndAutoJobs(t *testing.T) {
	db := testutil.NewSQLite(t)
	jobs := repo.NewJobRepo(db)
	require.NoError(t, db.Create(&objects.SysJob{Name: "db:fetch", CronExpr: "@every 2h", ServiceHandler: "test:flaky", Status: 1, Retries: 2}).Error)
	require.NoError(t, db.Create(&objects.SysJob{Name: "db:broken", CronExpr: "@every 2h", ServiceHandler: "nope", Status: 1}).Error)
	off := &objects.SysJob{Name: "db:off", CronExpr: "@every 2h", ServiceHandler: "test:flaky"}
	require.NoError(t, db.Create(off).Error)
	// status 有 default:1，零值需要单独更新
	require.NoError(t, db.Model(off).Update("status", 0).Error)

	registry := tasks.NewRegistry(zap.NewNop())
	registry.Register("test:flaky", func() core.Task { return &flakyTask{} })
	registry.RegisterAuto(core.JobSpec{Name: "auto:flaky", Handler: "test:flaky", Cron: "@every 1h"}, func() core.Task { return &flakyTask{} })

	s := NewScheduler(registry, zap.NewNop(), WithRunLog(jobs), WithBackoff(0))
	assert.Equal(t, 1, registry.ApplyAutoJobs(s))

	loaded, err := s.LoadFromStore(context.Background(), jobs)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	all := s.Stats.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "auto:flaky", all[0].Name)
	assert.Equal(t, core.JobSourceSystem, all[0].Source)
	assert.Equal(t, "db:fetch", all[1].Name)
	assert.Equal(t, core.JobSourceDB, all[1].Source)
	assert.Equal(t, 2, all[1].Retries)
}

func TestStartStop(t *testing.T) {
	s, _ := newScheduler(t, tasks.NewRegistry(zap.NewNop()))
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
