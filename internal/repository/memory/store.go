// Package memory is an in-process record store for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

// Store keeps the three record sets in mutex-guarded maps.
type Store struct {
	mu         sync.RWMutex
	documents  map[string]patent.Document
	summaries  map[string]patent.Summary
	embeddings map[string]patent.Embedding
	dimensions int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		documents:  make(map[string]patent.Document),
		summaries:  make(map[string]patent.Summary),
		embeddings: make(map[string]patent.Embedding),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// InsertDocument stores a document unless its ID already exists.
func (s *Store) InsertDocument(_ context.Context, doc patent.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID()]; ok {
		return fmt.Errorf("document %s: %w", doc.ID(), domain.ErrAlreadyExists)
	}
	s.documents[doc.ID()] = doc
	return nil
}

// GetDocument returns a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (patent.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return patent.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

// GetDocuments returns the documents that exist among ids.
func (s *Store) GetDocuments(_ context.Context, ids []string) (map[string]patent.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]patent.Document, len(ids))
	for _, id := range ids {
		if doc, ok := s.documents[id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}

// GetSummary returns the summary of a document.
func (s *Store) GetSummary(_ context.Context, id string) (patent.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[id]
	if !ok {
		return patent.Summary{}, fmt.Errorf("summary %s: %w", id, domain.ErrNotFound)
	}
	return sum, nil
}

// GetEmbedding returns the embedding of a document.
func (s *Store) GetEmbedding(_ context.Context, id string) (patent.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.embeddings[id]
	if !ok {
		return patent.Embedding{}, fmt.Errorf("embedding %s: %w", id, domain.ErrNotFound)
	}
	return e, nil
}

// UnenrichedIDs returns up to limit document IDs without a summary, in ascending ID order.
func (s *Store) UnenrichedIDs(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return missing(s.documents, s.summaries, limit), nil
}

// UnembeddedIDs returns up to limit summarized document IDs without an embedding, in ascending ID order.
func (s *Store) UnembeddedIDs(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return missing(s.summaries, s.embeddings, limit), nil
}

func missing[U, D any](upstream map[string]U, downstream map[string]D, limit int) []string {
	if limit <= 0 {
		return nil
	}
	out := make([]string, 0, limit)
	for _, id := range slices.Sorted(maps.Keys(upstream)) {
		if _, done := downstream[id]; done {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

// InsertSummary stores a summary; returns ErrAlreadyProcessed if one already exists.
func (s *Store) InsertSummary(_ context.Context, sum patent.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.summaries[sum.DocumentID()]; ok {
		return fmt.Errorf("summary %s: %w", sum.DocumentID(), domain.ErrAlreadyProcessed)
	}
	s.summaries[sum.DocumentID()] = sum
	return nil
}

// InsertEmbedding stores an embedding; returns ErrAlreadyProcessed if one already exists.
func (s *Store) InsertEmbedding(_ context.Context, e patent.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.embeddings[e.DocumentID()]; ok {
		return fmt.Errorf("embedding %s: %w", e.DocumentID(), domain.ErrAlreadyProcessed)
	}
	s.embeddings[e.DocumentID()] = e
	return nil
}

// ScanEmbeddings calls fn for every document with a summary and an embedding, in ascending
// ID order. The ID set is snapshotted up front; fn runs without the lock held.
func (s *Store) ScanEmbeddings(ctx context.Context, fn func(patent.StoredVector) error) error {
	s.mu.RLock()
	rows := make([]patent.StoredVector, 0, len(s.embeddings))
	for _, id := range slices.Sorted(maps.Keys(s.embeddings)) {
		if _, ok := s.summaries[id]; !ok {
			continue
		}
		if _, ok := s.documents[id]; !ok {
			continue
		}
		e := s.embeddings[id]
		rows = append(rows, patent.StoredVector{DocumentID: id, Vector: e.Vector()})
	}
	s.mu.RUnlock()

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// Counts returns the size of each record set.
func (s *Store) Counts(context.Context) (patent.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return patent.Counts{
		Documents:  int64(len(s.documents)),
		Summaries:  int64(len(s.summaries)),
		Embeddings: int64(len(s.embeddings)),
	}, nil
}

// EstablishDimensions records n unless a dimensionality is already recorded.
func (s *Store) EstablishDimensions(_ context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("dimensions must be positive: %w", domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimensions == 0 {
		s.dimensions = n
	}
	return s.dimensions, nil
}
