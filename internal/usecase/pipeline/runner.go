// Package pipeline runs one bounded batch of a derivation stage: select pending IDs,
// process them on a worker pool, and summarize the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/batch"
	"github.com/kailas-cloud/patentdex/internal/logger"
	"github.com/kailas-cloud/patentdex/internal/metrics"
)

// DefaultWorkers is the per-batch concurrency when none is configured.
const DefaultWorkers = 4

// SelectFunc returns up to limit pending IDs in ascending order.
type SelectFunc func(ctx context.Context, limit int) ([]string, error)

// ProcessFunc derives and stores the record for one ID. Returning an error wrapping
// domain.ErrAlreadyProcessed marks the item skipped.
type ProcessFunc func(ctx context.Context, id string) error

// Runner executes batches for a single stage.
type Runner struct {
	stage   batch.Stage
	workers int
	logger  *zap.Logger
	newID   func() string
}

// NewRunner creates a runner. workers <= 0 uses DefaultWorkers. log is used when the
// context carries no request logger; nil discards.
func NewRunner(stage batch.Stage, workers int, log *zap.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{stage: stage, workers: workers, logger: log, newID: uuid.NewString}
}

// Run selects at most batchSize IDs and processes each once. Item failures are recorded
// in the report. Fatal errors (dimension mismatch, exhausted quota, cancellation, or
// every item failing with ErrModelUnavailable) stop the batch and are returned along
// with the partial report.
func (r *Runner) Run(ctx context.Context, batchSize int, selectIDs SelectFunc, process ProcessFunc) (batch.Report, error) {
	report := batch.Report{RunID: r.newID(), Stage: r.stage}
	if batchSize <= 0 {
		return report, fmt.Errorf("batch size must be positive, got %d: %w", batchSize, domain.ErrInvalidArgument)
	}

	stage := string(r.stage)
	log := logger.FromContextOr(ctx, r.logger).With(zap.String("stage", stage), zap.String("run_id", report.RunID))
	start := time.Now()

	ids, err := selectIDs(ctx, batchSize)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues(stage, "fatal").Inc()
		return report, fmt.Errorf("%s: select pending: %w", stage, err)
	}

	report.Items = make([]batch.Result, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, id := range ids {
		g.Go(func() error {
			res, fatal := r.processOne(gctx, id, process)
			report.Items[i] = res
			if res.Status() == batch.StatusError && !fatal {
				log.Warn("Pipeline item failed", zap.String("id", id), zap.Error(res.Err()))
			}
			metrics.PipelineItemsTotal.WithLabelValues(stage, string(res.Status())).Inc()
			if fatal {
				return res.Err()
			}
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = allUnavailable(report.Items)
	}

	report.Duration = time.Since(start)
	metrics.PipelineBatchDuration.WithLabelValues(stage).Observe(report.Duration.Seconds())

	fields := []zap.Field{
		zap.Int("selected", report.Selected()),
		zap.Int("processed", report.Processed()),
		zap.Int("skipped", report.Skipped()),
		zap.Int("failed", report.Failed()),
		zap.Duration("duration", report.Duration),
	}
	if runErr != nil {
		metrics.PipelineRunsTotal.WithLabelValues(stage, "fatal").Inc()
		log.Error("Pipeline batch aborted", append(fields, zap.Error(runErr))...)
		return report, fmt.Errorf("%s run %s: %w", stage, report.RunID, runErr)
	}
	metrics.PipelineRunsTotal.WithLabelValues(stage, "ok").Inc()
	log.Info("Pipeline batch finished", fields...)
	return report, nil
}

// processOne runs one item and reports whether its error must abort the batch.
func (r *Runner) processOne(ctx context.Context, id string, process ProcessFunc) (batch.Result, bool) {
	if err := ctx.Err(); err != nil {
		return batch.NewError(id, err), true
	}
	err := process(ctx, id)
	switch {
	case err == nil:
		return batch.NewOK(id), false
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return batch.NewSkipped(id), false
	case domain.IsFatal(err):
		return batch.NewError(id, err), true
	case ctx.Err() != nil:
		// Parent cancelled or a sibling failed fatally.
		return batch.NewError(id, err), true
	default:
		return batch.NewError(id, err), false
	}
}

// allUnavailable treats a batch where every item failed with ErrModelUnavailable as a
// gateway outage rather than a run of unlucky items.
func allUnavailable(items []batch.Result) error {
	if len(items) == 0 {
		return nil
	}
	for _, it := range items {
		if it.Status() != batch.StatusError || !errors.Is(it.Err(), domain.ErrModelUnavailable) {
			return nil
		}
	}
	return fmt.Errorf("all %d items failed: %w", len(items), items[0].Err())
}
