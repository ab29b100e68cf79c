package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// ListingQueries counts listing queries by outcome ("ok" or an error code).
	ListingQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_queries_total",
			Help: "Total number of listing queries by outcome",
		},
		[]string{"outcome"},
	)

	ListingResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listing_query_result_size",
			Help:    "Number of listings returned per query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	ListingSnapshotSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "listing_snapshot_size",
			Help: "Number of listings in the last snapshot read from a source",
		},
		[]string{"source"},
	)

	ListingCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_cache_requests_total",
			Help: "Listing snapshot cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_http_requests_total",
			Help: "Listing API requests by route and status code",
		},
		[]string{"route", "status"},
	)
)
