package enrich

import (
	"context"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

// Store is the slice of the record store the enrichment pipeline needs.
type Store interface {
	UnenrichedIDs(ctx context.Context, limit int) ([]string, error)
	GetDocuments(ctx context.Context, ids []string) (map[string]patent.Document, error)
	InsertSummary(ctx context.Context, s patent.Summary) error
}

// Generator produces summary text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationResult, error)
}
