package patentdex

import (
	"context"
	"time"

	logpkg "github.com/kailas-cloud/patentdex/internal/logger"
	healthuc "github.com/kailas-cloud/patentdex/internal/usecase/health"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health pings the record store and every model capability that implements
// HealthChecker. Status is "error" only when the store is unreachable.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	if c.logger != nil {
		ctx = logpkg.ContextWithLogger(ctx, c.logger)
	}
	report := c.healthSvc.Check(ctx)
	c.obs.observe("health", start, nil)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
