// Package embed vectorizes summaries that do not have an embedding yet.
package embed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/batch"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/domain/vector"
	"github.com/kailas-cloud/patentdex/internal/logger"
	"github.com/kailas-cloud/patentdex/internal/usecase/pipeline"
)

// Config holds the per-corpus settings of the embedding stage.
type Config struct {
	Model      string // recorded on each embedding
	Dimensions int    // 0 = established by the first stored vector
	Workers    int
	Logger     *zap.Logger
}

// Service is the embedding pipeline.
type Service struct {
	store  Store
	embed  domain.Embedder
	model  string
	runner *pipeline.Runner
	logger *zap.Logger
	now    func() time.Time
}

// New creates an embedding service. Every vector passes a dimension guard backed by
// the store, so a model swap cannot mix vector spaces.
func New(store Store, emb Embedder, cfg Config) *Service {
	return &Service{
		store:  store,
		embed:  domain.NewDimensionGuard(emb, cfg.Dimensions, store),
		model:  cfg.Model,
		runner: pipeline.NewRunner(batch.StageEmbed, cfg.Workers, cfg.Logger),
		logger: cfg.Logger,
		now:    time.Now,
	}
}

// Run embeds up to batchSize summaries. The report's Processed count is the number of
// embeddings this call created; call again until it is zero.
func (s *Service) Run(ctx context.Context, batchSize int) (batch.Report, error) {
	return s.runner.Run(ctx, batchSize, s.store.UnembeddedIDs, s.embedOne)
}

func (s *Service) embedOne(ctx context.Context, id string) error {
	summary, err := s.store.GetSummary(ctx, id)
	if err != nil {
		return fmt.Errorf("load summary: %w", err)
	}

	res, err := s.embed.Embed(ctx, summary.Text())
	if err != nil {
		return fmt.Errorf("embed summary of %s: %w", id, err)
	}
	if vector.Norm(res.Vector) == 0 {
		return fmt.Errorf("embedding of %s: %w", id, domain.ErrZeroVector)
	}
	if res.Truncated {
		logger.FromContextOr(ctx, s.logger).Warn("Summary exceeded the embedding context window, indexing truncated vector",
			zap.String("id", id),
			zap.Float64("token_count", res.TokenCount),
		)
	}

	emb, err := patent.NewEmbedding(id, res.Vector, patent.EmbeddingMeta{
		Truncated:  res.Truncated,
		TokenCount: res.TokenCount,
		Model:      s.model,
	}, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrModelError, err)
	}
	if err := s.store.InsertEmbedding(ctx, emb); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}
