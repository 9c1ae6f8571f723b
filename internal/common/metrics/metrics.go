// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_pipeline_runs_total",
			Help: "Pipeline runs by input kind and outcome",
		},
		[]string{"input", "status"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "route_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	SearchPageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "place_search_page_requests_total",
			Help: "Place-search page requests by outcome",
		},
		[]string{"outcome"},
	)

	SearchRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "place_search_rate_limited_total",
			Help: "Place-search responses that signalled rate limiting",
		},
	)

	SearchCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "place_search_candidates",
			Help:    "Size of the ranked candidate pool per aggregation",
			Buckets: prometheus.LinearBuckets(0, 10, 8),
		},
	)

	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saved_location_store_operations_total",
			Help: "Saved-location store operations by backend, operation and outcome",
		},
		[]string{"backend", "operation", "outcome"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)
)

var HTTPRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP API requests by route and status",
	},
	[]string{"method", "route", "status"},
)
