package health

import (
	"context"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the store works but a model capability does not.
	Degraded Status = "degraded"
	// Unhealthy indicates the record store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db     DBPinger
	models map[string]ModelChecker
}

// New creates a Service. models maps a capability name ("generation", "embedding")
// to its checker; nil checkers are skipped.
func New(db DBPinger, models map[string]ModelChecker) *Service {
	m := make(map[string]ModelChecker, len(models))
	for name, c := range models {
		if c != nil {
			m[name] = c
		}
	}
	return &Service{db: db, models: m}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	checks := make(map[string]CheckResult, len(s.models)+1)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		log.Warn("Database health check failed", zap.Error(err))
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	for _, name := range slices.Sorted(maps.Keys(s.models)) {
		if err := s.models[name].HealthCheck(ctx); err != nil {
			log.Warn("Model health check failed", zap.String("capability", name), zap.Error(err))
			checks[name] = CheckError
			if status == Healthy {
				status = Degraded
			}
			continue
		}
		checks[name] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
