package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register registers all patentdex metrics with the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ModelRequestsTotal,
			ModelRequestDuration,
			ModelTokensTotal,
			ModelErrorsTotal,
			ModelBudgetTokensRemaining,
			ModelRateLimitWait,
			QueryCacheTotal,
			PipelineItemsTotal,
			PipelineBatchDuration,
			PipelineRunsTotal,
			PipelineBacklog,
			SearchDuration,
			SearchCandidates,
			SearchRequestsTotal,
			httpRequestDuration,
			httpRequestsTotal,
			httpInFlight,
		)
	})
}
