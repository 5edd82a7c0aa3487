// Package metrics holds the Prometheus collectors of the aggregator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "newsfeed"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	StoreCreated = "created"
	StoreUpdated = "updated"
	StoreFailed  = "failed"

	FeedCacheHit  = "hit"
	FeedCacheMiss = "miss"
	FeedFallback  = "fallback"
)

// Metrics 所有 collector 的集合；nil 接收者上的方法都是 no-op
type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	ArticlesFetched  *prometheus.CounterVec
	ArticlesStored   *prometheus.CounterVec
	AuditDropped     prometheus.Counter
	FeedRequests     *prometheus.CounterVec
	JobRuns          *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
}

// New registers every collector on reg, falling back to the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	m := &Metrics{}
	m.initProviderMetrics(factory)
	m.initStorageMetrics(factory)
	m.initJobMetrics(factory)
	return m
}

func (m *Metrics) initProviderMetrics(factory promauto.Factory) {
	m.ProviderRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Outbound provider calls by outcome",
	}, []string{"provider", "outcome"})

	m.ProviderLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Latency of outbound provider calls",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	m.ArticlesFetched = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "provider",
		Name:      "articles_fetched_total",
		Help:      "Raw records returned by providers",
	}, []string{"provider"})

	m.AuditDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "audit",
		Name:      "records_dropped_total",
		Help:      "Audit records dropped because the buffer was full",
	})
}

func (m *Metrics) initStorageMetrics(factory promauto.Factory) {
	m.ArticlesStored = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "storage",
		Name:      "articles_total",
		Help:      "Store attempts by result",
	}, []string{"result"})

	m.FeedRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "feed",
		Name:      "requests_total",
		Help:      "Feed requests by cache path",
	}, []string{"path"})
}

func (m *Metrics) initJobMetrics(factory promauto.Factory) {
	m.JobRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Scheduled job runs by status",
	}, []string{"job", "status"})

	m.JobDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "Wall time of scheduled job runs",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"job"})
}

// ObserveProviderCall records one outbound call.
func (m *Metrics) ObserveProviderCall(provider string, failed bool, elapsed time.Duration, items int) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeFailure
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	if items > 0 {
		m.ArticlesFetched.WithLabelValues(provider).Add(float64(items))
	}
}

func (m *Metrics) ObserveStore(result string) {
	if m == nil {
		return
	}
	m.ArticlesStored.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveFeed(path string) {
	if m == nil {
		return
	}
	m.FeedRequests.WithLabelValues(path).Inc()
}

func (m *Metrics) ObserveJob(job, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func (m *Metrics) IncAuditDropped() {
	if m == nil {
		return
	}
	m.AuditDropped.Inc()
}
