// Package enrich derives keyword summaries for documents that do not have one yet.
package enrich

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/batch"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/usecase/pipeline"
)

// Config holds the per-corpus settings of the enrichment stage.
type Config struct {
	Prompt  domain.PromptTemplate
	Model   string // recorded on each summary
	Workers int
	Logger  *zap.Logger
}

// Service is the enrichment pipeline.
type Service struct {
	store  Store
	gen    Generator
	prompt domain.PromptTemplate
	model  string
	runner *pipeline.Runner
	now    func() time.Time
}

// New creates an enrichment service. A zero Prompt uses the default template.
func New(store Store, gen Generator, cfg Config) *Service {
	prompt := cfg.Prompt
	if prompt.String() == "" {
		prompt = domain.MustPromptTemplate(domain.DefaultPromptTemplate)
	}
	return &Service{
		store:  store,
		gen:    gen,
		prompt: prompt,
		model:  cfg.Model,
		runner: pipeline.NewRunner(batch.StageEnrich, cfg.Workers, cfg.Logger),
		now:    time.Now,
	}
}

// Run summarizes up to batchSize unenriched documents. The report's Processed count
// is the number of summaries this call created; call again until it is zero.
func (s *Service) Run(ctx context.Context, batchSize int) (batch.Report, error) {
	// Written once by selection, then only read by the workers.
	var docs map[string]patent.Document

	selectIDs := func(ctx context.Context, limit int) ([]string, error) {
		ids, err := s.store.UnenrichedIDs(ctx, limit)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		docs, err = s.store.GetDocuments(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}
		return ids, nil
	}

	process := func(ctx context.Context, id string) error {
		doc, ok := docs[id]
		if !ok {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return s.enrichOne(ctx, &doc)
	}

	return s.runner.Run(ctx, batchSize, selectIDs, process)
}

func (s *Service) enrichOne(ctx context.Context, doc *patent.Document) error {
	res, err := s.gen.Generate(ctx, s.prompt.Render(doc.Title(), doc.Abstract()))
	if err != nil {
		return fmt.Errorf("generate summary for %s: %w", doc.ID(), err)
	}
	summary, err := patent.NewSummary(doc.ID(), res.Text, s.model, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrModelError, err)
	}
	if err := s.store.InsertSummary(ctx, summary); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	return nil
}
