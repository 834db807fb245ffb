package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline metrics. The stage label is "enrich" or "embed".
var (
	PipelineItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pipeline_items_total",
			Help:      "Pipeline items by outcome",
		},
		[]string{"stage", "status"}, // ok / skipped / error
	)

	PipelineBatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "pipeline_batch_duration_seconds",
			Help:      "Duration of one pipeline batch",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline batch runs by result",
		},
		[]string{"stage", "result"}, // ok / fatal
	)

	PipelineBacklog = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "pipeline_backlog",
			Help:      "Records still waiting for a stage, as of the last stats read",
		},
		[]string{"stage"},
	)
)
