package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/internal/provider"
	"github.com/iceymoss/go-newsfeed/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	name    string
	records []json.RawMessage
	calls   int32
	lastQ   atomic.Value
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchArticles(_ context.Context, params provider.Params) []json.RawMessage {
	atomic.AddInt32(&p.calls, 1)
	p.lastQ.Store(params["q"])
	return p.records
}

func (p *stubProvider) SearchArticles(ctx context.Context, query string, filters provider.Params) []json.RawMessage {
	return p.FetchArticles(ctx, provider.Params{"q": query}.Merge(filters))
}

func (p *stubProvider) Sources(context.Context) []provider.SourceInfo { return nil }

func newsAPIRecords(n int) []json.RawMessage {
	out := make([]json.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, json.RawMessage(fmt.Sprintf(
			`{"source":{"name":"Reuters"},"title":"n%d","url":"https://reuters.com/%d","publishedAt":"2026-03-19T10:00:00Z","author":"A, B"}`, i, i)))
	}
	return out
}

func nytRecords(n int) []json.RawMessage {
	out := make([]json.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, json.RawMessage(fmt.Sprintf(
			`{"_id":"nyt://article/%d","headline":{"main":"y%d"},"web_url":"https://nytimes.com/%d","pub_date":"2026-03-19T10:00:00+0000","section_name":"World"}`, i, i, i)))
	}
	return out
}

func newAggregator(t *testing.T, providers ...provider.Provider) *service.Aggregator {
	s, _, _, _ := newStorage(t)
	return service.NewAggregator(provider.NewRegistry(providers...), s, 2, zap.NewNop())
}

func TestFetchFromAllProvidersIsolatesFailures(t *testing.T) {
	newsapi := &stubProvider{name: core.ProviderNewsAPI, records: newsAPIRecords(3)}
	guardian := &stubProvider{name: core.ProviderGuardian, records: []json.RawMessage{}}
	nyt := &stubProvider{name: core.ProviderNYT, records: nytRecords(2)}
	agg := newAggregator(t, newsapi, guardian, nyt)

	assert.Equal(t, 5, agg.FetchFromAllProviders(context.Background(), nil))
	assert.EqualValues(t, 1, atomic.LoadInt32(&guardian.calls))
}

func TestFetchEachReportsPerProvider(t *testing.T) {
	agg := newAggregator(t,
		&stubProvider{name: core.ProviderNewsAPI, records: newsAPIRecords(4)},
		&stubProvider{name: core.ProviderNYT, records: nytRecords(1)},
	)

	counts := agg.FetchEach(context.Background(), provider.Params{"q": "go"})
	assert.Equal(t, map[string]int{core.ProviderNewsAPI: 4, core.ProviderNYT: 1}, counts)
}

func TestFetchFromProvider(t *testing.T) {
	newsapi := &stubProvider{name: core.ProviderNewsAPI, records: newsAPIRecords(2)}
	agg := newAggregator(t, newsapi)
	ctx := context.Background()

	assert.Equal(t, 2, agg.FetchFromProvider(ctx, core.ProviderNewsAPI, nil))
	// 再次抓取同样的数据只会更新
	assert.Equal(t, 2, agg.FetchFromProvider(ctx, core.ProviderNewsAPI, nil))
	assert.Zero(t, agg.FetchFromProvider(ctx, core.ProviderGuardian, nil))
	assert.Equal(t, []string{core.ProviderNewsAPI}, agg.Providers())
}

func TestFetchFromProviderCountsOnlyValidRecords(t *testing.T) {
	records := append(newsAPIRecords(2), json.RawMessage(`{"title":"no date","url":"https://reuters.com/x"}`))
	agg := newAggregator(t, &stubProvider{name: core.ProviderNewsAPI, records: records})

	assert.Equal(t, 2, agg.FetchFromProvider(context.Background(), core.ProviderNewsAPI, nil))
}

func TestUnmappedProviderStoresNothing(t *testing.T) {
	agg := newAggregator(t, &stubProvider{name: "bbc", records: newsAPIRecords(1)})

	assert.Zero(t, agg.FetchFromProvider(context.Background(), "bbc", nil))
}

func TestSearchAcrossProviders(t *testing.T) {
	newsapi := &stubProvider{name: core.ProviderNewsAPI, records: newsAPIRecords(1)}
	nyt := &stubProvider{name: core.ProviderNYT, records: nytRecords(2)}
	agg := newAggregator(t, newsapi, nyt)

	assert.Equal(t, 3, agg.SearchAcrossProviders(context.Background(), "climate", nil))
	require.Equal(t, "climate", newsapi.lastQ.Load())
	require.Equal(t, "climate", nyt.lastQ.Load())
}
