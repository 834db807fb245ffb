package health

import "context"

// DBPinger checks record store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks a model gateway capability.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}
