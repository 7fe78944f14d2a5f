// Package metrics defines Prometheus metrics for the glossary service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glossarion_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glossarion_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glossarion_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	RowsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "glossarion_import_rows_processed_total",
			Help: "Source rows consumed by the ingestion pipeline",
		},
	)

	BatchesCommitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "glossarion_import_batches_committed_total",
			Help: "Import batches committed to storage",
		},
	)

	EntitiesImported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "glossarion_import_entities_total",
			Help: "Terms imported into the catalog",
		},
	)

	EnrichmentFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "glossarion_enrichment_failures_total",
			Help: "AI enrichment calls that failed or timed out",
		},
	)

	RunsByState = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glossarion_import_runs_total",
			Help: "Import runs by terminal state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		RowsProcessed, BatchesCommitted, EntitiesImported,
		EnrichmentFailures, RunsByState,
	)
}
