package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IndexOperationsTotal counts gateway calls made while syncing or
	// reindexing, by op (put, delete), entity type and outcome (ok, error).
	IndexOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewblog_index_operations_total",
			Help: "Total number of search index operations",
		},
		[]string{"op", "entity_type", "outcome"},
	)

	IndexSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "brewblog_index_sync_duration_seconds",
			Help:    "Time spent replaying a committed change set against the search index",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewblog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brewblog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// ObserveIndexOp records the outcome of one gateway call.
func ObserveIndexOp(op, entityType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	IndexOperationsTotal.WithLabelValues(op, entityType, outcome).Inc()
}
