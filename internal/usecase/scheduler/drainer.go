// Package scheduler drives the pipeline stages until the backlog is empty.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/logger"
)

// Result totals one drain.
type Result struct {
	Rounds   int
	Enriched int
	Embedded int
	Failed   int
	Duration time.Duration
}

// Drainer alternates enrich and embed batches.
type Drainer struct {
	enrich    Stage
	embed     Stage
	batchSize int
	maxRounds int
	logger    *zap.Logger
}

// NewDrainer creates a drainer. maxRounds <= 0 means run until both stages are idle.
func NewDrainer(enrich, embed Stage, batchSize, maxRounds int) *Drainer {
	return &Drainer{enrich: enrich, embed: embed, batchSize: batchSize, maxRounds: maxRounds, logger: zap.NewNop()}
}

// WithLogger sets the logger used when the context carries none.
func (d *Drainer) WithLogger(l *zap.Logger) *Drainer {
	if l != nil {
		d.logger = l
	}
	return d
}

// Drain runs enrich then embed until a round processes nothing in either stage, the
// round limit is hit, or a stage returns an error. Failed items stay pending for the
// next drain, so a round of pure failures ends the loop.
func (d *Drainer) Drain(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	for d.maxRounds <= 0 || res.Rounds < d.maxRounds {
		if err = ctx.Err(); err != nil {
			return res, err
		}
		res.Rounds++

		er, err := d.enrich.Run(ctx, d.batchSize)
		res.Enriched += er.Processed()
		res.Failed += er.Failed()
		if err != nil {
			return res, fmt.Errorf("drain round %d: %w", res.Rounds, err)
		}

		mr, err := d.embed.Run(ctx, d.batchSize)
		res.Embedded += mr.Processed()
		res.Failed += mr.Failed()
		if err != nil {
			return res, fmt.Errorf("drain round %d: %w", res.Rounds, err)
		}

		if er.Processed() == 0 && mr.Processed() == 0 {
			break
		}
	}

	logger.FromContextOr(ctx, d.logger).Info("Drain finished",
		zap.Int("rounds", res.Rounds),
		zap.Int("enriched", res.Enriched),
		zap.Int("embedded", res.Embedded),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
