package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	// UploadsTotal tracks report uploads by outcome status
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_uploads_total",
			Help: "Total number of report uploads by final status",
		},
		[]string{"source_type", "status"},
	)

	// IngestDuration tracks end-to-end ingestion duration
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_ingest_duration_seconds",
			Help:    "Report ingestion duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"source_type"},
	)

	// IngestsInProgress tracks currently running ingestions
	IngestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "report_ingests_in_progress",
			Help: "Number of report ingestions currently in progress",
		},
	)

	// RowsProcessedTotal tracks CSV rows that produced a finding
	RowsProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_rows_processed_total",
			Help: "Total number of CSV rows successfully processed",
		},
	)

	// RowsSkippedTotal tracks CSV rows skipped by reason
	RowsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_skipped_total",
			Help: "Total number of CSV rows skipped by reason",
		},
		[]string{"reason"}, // reason: "validation", "persistence"
	)

	// FindingBatchFailures tracks failed finding insert batches
	FindingBatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_finding_batch_failures_total",
			Help: "Total number of finding insert batches that failed",
		},
	)

	// FindingsIngestedTotal tracks persisted findings by severity
	FindingsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "findings_ingested_total",
			Help: "Total number of findings persisted by severity",
		},
		[]string{"severity"},
	)
)

// Identity resolution metrics
var (
	// OrganizationCreateRetries tracks find-or-create retries after a
	// concurrent insert won the uniqueness race
	OrganizationCreateRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "organization_create_retries_total",
			Help: "Total number of organization find-or-create retries",
		},
	)

	// ReportIterationRetries tracks iteration number allocation retries
	ReportIterationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_iteration_retries_total",
			Help: "Total number of report iteration allocation retries",
		},
	)
)

// Janitor metrics
var (
	// StaleReportsReaped tracks processing reports marked failed by the janitor
	StaleReportsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stale_reports_reaped_total",
			Help: "Total number of stale processing reports marked failed",
		},
	)

	// JanitorRunsTotal tracks janitor runs by status
	JanitorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "janitor_runs_total",
			Help: "Total number of janitor runs by status",
		},
		[]string{"status"},
	)
)

// Cache metrics
var (
	// DashboardCacheHits tracks dashboard summary cache hits and misses
	DashboardCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_cache_requests_total",
			Help: "Total dashboard summary cache lookups by result",
		},
		[]string{"result"}, // result: "hit", "miss", "error"
	)
)
