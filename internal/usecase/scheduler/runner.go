package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/logger"
)

// Runner repeats Drain on a fixed interval until its context is cancelled.
type Runner struct {
	drainer  *Drainer
	interval time.Duration
}

// NewRunner creates a periodic runner.
func NewRunner(drainer *Drainer, interval time.Duration) *Runner {
	return &Runner{drainer: drainer, interval: interval}
}

// Run drains immediately, then once per interval. Drain errors are logged and the
// next tick tries again. Returns when ctx is done.
func (r *Runner) Run(ctx context.Context) {
	log := logger.FromContextOr(ctx, r.drainer.logger)
	log.Info("Pipeline scheduler started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.drainer.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Scheduled drain failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			log.Info("Pipeline scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
