package patent

import (
	"fmt"
	"slices"
	"time"
)

// Embedding is the vector derived from a document summary. Created once, never updated.
type Embedding struct {
	documentID string
	vector     []float64
	truncated  bool
	tokenCount float64
	model      string
	createdAt  time.Time
}

// EmbeddingMeta holds the provider-reported metadata stored next to a vector.
type EmbeddingMeta struct {
	Truncated  bool
	TokenCount float64
	Model      string
}

// NewEmbedding validates and creates an Embedding. The vector is copied.
func NewEmbedding(documentID string, vector []float64, meta EmbeddingMeta, createdAt time.Time) (Embedding, error) {
	if err := ValidateID(documentID); err != nil {
		return Embedding{}, err
	}
	if len(vector) == 0 {
		return Embedding{}, fmt.Errorf("embedding for %s: vector is empty", documentID)
	}
	return Embedding{
		documentID: documentID,
		vector:     slices.Clone(vector),
		truncated:  meta.Truncated,
		tokenCount: meta.TokenCount,
		model:      meta.Model,
		createdAt:  createdAt.UTC(),
	}, nil
}

// ReconstructEmbedding creates an Embedding without validation (storage hydration).
func ReconstructEmbedding(documentID string, vector []float64, meta EmbeddingMeta, createdAt time.Time) Embedding {
	return Embedding{
		documentID: documentID,
		vector:     vector,
		truncated:  meta.Truncated,
		tokenCount: meta.TokenCount,
		model:      meta.Model,
		createdAt:  createdAt,
	}
}

// DocumentID returns the source document identifier.
func (e *Embedding) DocumentID() string { return e.documentID }

// Vector returns the embedding vector.
func (e *Embedding) Vector() []float64 { return e.vector }

// Dimensions returns the vector length.
func (e *Embedding) Dimensions() int { return len(e.vector) }

// Truncated reports whether the provider truncated the input.
func (e *Embedding) Truncated() bool { return e.truncated }

// TokenCount returns the provider-reported token count.
func (e *Embedding) TokenCount() float64 { return e.tokenCount }

// Model returns the embedding model name.
func (e *Embedding) Model() string { return e.model }

// Meta returns the stored metadata.
func (e *Embedding) Meta() EmbeddingMeta {
	return EmbeddingMeta{Truncated: e.truncated, TokenCount: e.tokenCount, Model: e.model}
}

// CreatedAt returns the creation time.
func (e *Embedding) CreatedAt() time.Time { return e.createdAt }

// StoredVector is one row of an embedding scan: the document ID and its vector.
type StoredVector struct {
	DocumentID string
	Vector     []float64
}
