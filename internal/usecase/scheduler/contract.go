package scheduler

import (
	"context"

	"github.com/kailas-cloud/patentdex/internal/domain/batch"
)

// Stage runs one bounded batch of a pipeline stage.
type Stage interface {
	Run(ctx context.Context, batchSize int) (batch.Report, error)
}
