package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsClassified tracks parsed rows by terminal status and reason
	RowsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statement_rows_classified_total",
			Help: "Total number of statement rows classified",
		},
		[]string{"source", "status", "reason"},
	)

	// CategorizationsTotal tracks categorization outcomes per resolving layer
	CategorizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statement_categorizations_total",
			Help: "Total number of categorization outcomes",
		},
		[]string{"source", "outcome"},
	)

	// AIRequestsTotal tracks AI classification batches
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statement_ai_requests_total",
			Help: "Total number of AI classification requests",
		},
		[]string{"result"},
	)

	// ImportedRows tracks import outcomes per write path
	ImportedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statement_import_rows_total",
			Help: "Total number of rows handled by the import executor",
		},
		[]string{"path", "outcome"},
	)

	// StageDuration tracks pipeline stage duration
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statement_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
)

// ObserveStage records the time elapsed since start for stage.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
