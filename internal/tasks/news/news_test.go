package news

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/internal/provider"
	"github.com/iceymoss/go-newsfeed/internal/repo"
	"github.com/iceymoss/go-newsfeed/internal/tasks"
	"github.com/iceymoss/go-newsfeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	name    string
	sources []provider.SourceInfo
}

func (p stubProvider) Name() string { return p.name }
func (p stubProvider) FetchArticles(context.Context, provider.Params) []json.RawMessage {
	return nil
}
func (p stubProvider) SearchArticles(context.Context, string, provider.Params) []json.RawMessage {
	return nil
}
func (p stubProvider) Sources(context.Context) []provider.SourceInfo { return p.sources }

type fakeFetcher struct {
	mu        sync.Mutex
	providers map[string]provider.Provider
	counts    map[string]int
	calls     []provider.Params
}

func newFakeFetcher(ps ...stubProvider) *fakeFetcher {
	f := &fakeFetcher{providers: map[string]provider.Provider{}, counts: map[string]int{}}
	for _, p := range ps {
		f.providers[p.name] = p
	}
	return f
}

func (f *fakeFetcher) Providers() []string {
	names := make([]string, 0, len(f.providers))
	for n := range f.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (f *fakeFetcher) Provider(name string) (provider.Provider, bool) {
	p, ok := f.providers[name]
	return p, ok
}

func (f *fakeFetcher) FetchFromProvider(_ context.Context, name string, params provider.Params) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	return f.counts[name]
}

func (f *fakeFetcher) FetchEach(_ context.Context, params provider.Params) map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	out := map[string]int{}
	for n := range f.providers {
		out[n] = f.counts[n]
	}
	return out
}

type fakePurger struct {
	days int
	err  error
}

func (p *fakePurger) Run(_ context.Context, days int) (int64, error) {
	p.days = days
	return 3, p.err
}

func TestFetchTask(t *testing.T) {
	f := newFakeFetcher(stubProvider{name: core.ProviderGuardian})
	f.counts[core.ProviderGuardian] = 4
	task := &FetchTask{agg: f, logger: zap.NewNop()}
	assert.Equal(t, TaskFetch, task.Identifier())

	err := task.Run(context.Background(), map[string]any{"provider": core.ProviderGuardian, "section": "world", "page-size": 10})
	require.NoError(t, err)
	require.Len(t, f.calls, 1)
	assert.Equal(t, provider.Params{"section": "world", "page-size": "10"}, f.calls[0])

	assert.ErrorIs(t, task.Run(context.Background(), map[string]any{}), errMissingProvider)
	assert.Error(t, task.Run(context.Background(), map[string]any{"provider": "bbc"}))
	assert.Len(t, f.calls, 1)
}

func TestFetchAllTask(t *testing.T) {
	f := newFakeFetcher(stubProvider{name: core.ProviderNewsAPI}, stubProvider{name: core.ProviderNYT})
	f.counts[core.ProviderNewsAPI] = 2
	task := &FetchAllTask{agg: f, logger: zap.NewNop()}

	require.NoError(t, task.Run(context.Background(), nil))
	require.Len(t, f.calls, 1)
	assert.Empty(t, f.calls[0])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, task.Run(ctx, nil), context.Canceled)
}

func TestCleanupTask(t *testing.T) {
	p := &fakePurger{}
	task := &CleanupTask{cleanup: p}

	require.NoError(t, task.Run(context.Background(), nil))
	assert.Zero(t, p.days)

	for _, v := range []any{30, int64(30), float64(30), "30"} {
		require.NoError(t, task.Run(context.Background(), map[string]any{"retention_days": v}))
		assert.Equal(t, 30, p.days)
	}

	assert.Error(t, task.Run(context.Background(), map[string]any{"retention_days": "a month"}))
	assert.Error(t, task.Run(context.Background(), map[string]any{"retention_days": []int{1}}))

	p.err = errors.New("db down")
	assert.ErrorIs(t, task.Run(context.Background(), nil), p.err)
}

func TestSyncSourcesTask(t *testing.T) {
	db := testutil.NewSQLite(t)
	articles := repo.NewArticleRepo(db)
	f := newFakeFetcher(
		stubProvider{name: core.ProviderGuardian, sources: []provider.SourceInfo{{ID: "guardian", Name: "The Guardian"}}},
		stubProvider{name: core.ProviderNYT, sources: []provider.SourceInfo{{ID: "nyt", Name: "The New York Times"}, {ID: "blank"}}},
	)
	task := &SyncSourcesTask{agg: f, sources: articles, logger: zap.NewNop()}

	require.NoError(t, task.Run(context.Background(), nil))
	// 再跑一次不会产生重复行
	require.NoError(t, task.Run(context.Background(), nil))

	list, err := articles.ListSources(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "The Guardian", list[0].Name)
	assert.Equal(t, "The New York Times", list[1].Name)
}

func TestRegister(t *testing.T) {
	r := tasks.NewRegistry(zap.NewNop())
	Register(r, Deps{Aggregator: newFakeFetcher(), Cleanup: &fakePurger{}, Logger: zap.NewNop()})

	assert.Equal(t, []string{TaskCleanup, TaskFetch, TaskFetchAll, TaskSyncSources}, r.Names())

	sched := &recordingScheduler{}
	assert.Equal(t, 3, r.ApplyAutoJobs(sched))
	byName := map[string]core.JobSpec{}
	for _, s := range sched.specs {
		byName[s.Name] = s
	}
	assert.Equal(t, 3, byName[TaskFetchAll].Retries)
	assert.Equal(t, FetchAllCron, byName[TaskFetchAll].Cron)
	assert.Equal(t, 1, byName[TaskCleanup].Retries)
	assert.Equal(t, core.JobSourceSystem, byName[TaskCleanup].Source)
	assert.NotContains(t, byName, TaskFetch)

	task, err := r.GetTask(TaskFetch)
	require.NoError(t, err)
	assert.IsType(t, &FetchTask{}, task)
}

type recordingScheduler struct {
	specs []core.JobSpec
}

func (s *recordingScheduler) AddJob(spec core.JobSpec) error {
	s.specs = append(s.specs, spec)
	return nil
}

var _ SourceStore = (*repo.ArticleRepo)(nil)
