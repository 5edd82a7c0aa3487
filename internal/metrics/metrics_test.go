package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveProviderCall(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveProviderCall("newsapi", false, 200*time.Millisecond, 20)
	m.ObserveProviderCall("newsapi", true, time.Second, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("newsapi", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("newsapi", OutcomeFailure)))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.ArticlesFetched.WithLabelValues("newsapi")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProviderLatency))
}

func TestObserveStoreFeedAndJobs(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveStore(StoreCreated)
	m.ObserveStore(StoreCreated)
	m.ObserveStore(StoreFailed)
	m.ObserveFeed(FeedCacheHit)
	m.ObserveJob("news:fetch_all", "success", 3*time.Second)
	m.IncAuditDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ArticlesStored.WithLabelValues(StoreCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArticlesStored.WithLabelValues(StoreFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequests.WithLabelValues(FeedCacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("news:fetch_all", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditDropped))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProviderCall("nyt", false, time.Millisecond, 1)
		m.ObserveStore(StoreUpdated)
		m.ObserveFeed(FeedFallback)
		m.ObserveJob("news:cleanup", "failed", time.Millisecond)
		m.IncAuditDropped()
	})
}
