package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every patentdex metric.
const Namespace = "patentdex"

// Model gateway metrics. The capability label is "generate" or "embed".
var (
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "model_requests_total",
			Help:      "Total number of model gateway requests",
		},
		[]string{"capability", "model", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Model gateway request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"capability", "model"},
	)

	ModelTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "model_tokens_total",
			Help:      "Total model tokens consumed",
		},
		[]string{"capability", "model", "type"},
	)

	ModelErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "model_errors_total",
			Help:      "Total model gateway errors",
		},
		[]string{"capability", "model", "error_type"},
	)

	ModelBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "model_budget_tokens_remaining",
			Help:      "Remaining token budget",
		},
		[]string{"period"},
	)

	ModelRateLimitWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "model_rate_limit_wait_seconds",
			Help:      "Time spent waiting for a rate limiter token",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15},
		},
		[]string{"capability"},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "query_embedding_cache_total",
			Help:      "Query embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)
