package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threads_upstream_request_latency",
			Help:    "Histogram of Threads Graph API request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status_code"},
	)

	UpstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_upstream_failures_total",
		Help: "The total number of Threads Graph API calls that ended in a fallback value",
	}, []string{"fetcher"})

	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threads_aggregated_pages_total",
		Help: "The total number of pages fetched by bulk aggregation",
	})

	PageCeilingHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threads_aggregation_ceiling_hits_total",
		Help: "The total number of aggregations stopped by the page ceiling",
	})

	RecordsExported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_exported_records_total",
		Help: "The total number of records submitted to an export sink",
	}, []string{"sink", "status"})
)
