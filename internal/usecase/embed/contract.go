package embed

import (
	"context"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

// Store is the slice of the record store the embedding pipeline needs.
type Store interface {
	UnembeddedIDs(ctx context.Context, limit int) ([]string, error)
	GetSummary(ctx context.Context, id string) (patent.Summary, error)
	InsertEmbedding(ctx context.Context, e patent.Embedding) error
	EstablishDimensions(ctx context.Context, n int) (int, error)
}

// Embedder vectorizes summary text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
