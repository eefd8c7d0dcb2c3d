package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innkeeper",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	storeQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innkeeper",
			Name:      "store_queries_total",
			Help:      "Document store queries by collection.",
		},
		[]string{"collection"},
	)

	aggregationPasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "innkeeper",
			Name:      "aggregation_passes_total",
			Help:      "Completed booking aggregation passes.",
		},
	)

	aggregationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "innkeeper",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of booking aggregation passes.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	staleDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "innkeeper",
			Name:      "aggregation_stale_drops_total",
			Help:      "Aggregation results discarded because a newer pass already applied.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			storeQueries,
			aggregationPasses,
			aggregationDuration,
			staleDrops,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncStoreQuery counts one document store query against a collection.
func IncStoreQuery(collection string) {
	storeQueries.WithLabelValues(collection).Inc()
}

// ObserveAggregation records a completed aggregation pass.
func ObserveAggregation(d time.Duration) {
	aggregationPasses.Inc()
	aggregationDuration.Observe(d.Seconds())
}

// IncStaleDrop counts an aggregation result that lost the apply race.
func IncStaleDrop() {
	staleDrops.Inc()
}
