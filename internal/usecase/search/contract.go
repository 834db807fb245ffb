package search

import (
	"context"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

// Store is the read side of the record store used by search.
type Store interface {
	ScanEmbeddings(ctx context.Context, fn func(patent.StoredVector) error) error
	GetDocuments(ctx context.Context, ids []string) (map[string]patent.Document, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
