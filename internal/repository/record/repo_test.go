package record

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/repository/recordtest"
	"github.com/kailas-cloud/patentdex/internal/usecase/search"
)

func TestRepo_Suite(t *testing.T) {
	recordtest.Run(t, func(*testing.T) recordtest.Store {
		return New(newFakeStore())
	})
}

func TestRepo_KeyLayout(t *testing.T) {
	fs := newFakeStore()
	r := New(fs, WithPrefix("test:"))
	ctx := context.Background()

	if err := r.InsertDocument(ctx, recordtest.Doc(t, "P1")); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	if err := r.InsertSummary(ctx, recordtest.Summary(t, "P1")); err != nil {
		t.Fatalf("insert summary: %v", err)
	}
	if _, err := r.EstablishDimensions(ctx, 3); err != nil {
		t.Fatalf("establish: %v", err)
	}

	for _, key := range []string{"test:doc:P1", "test:summary:P1"} {
		if _, ok := fs.kv[key]; !ok {
			t.Errorf("expected key %s", key)
		}
	}
	for _, idx := range []string{"test:idx:docs", "test:idx:summaries"} {
		if _, ok := fs.zsets[idx]["P1"]; !ok {
			t.Errorf("expected P1 in %s", idx)
		}
	}
	if fs.hashes["test:meta"]["dimensions"] != "3" {
		t.Errorf("unexpected meta: %v", fs.hashes["test:meta"])
	}
}

func TestRepo_InsertError(t *testing.T) {
	fs := newFakeStore()
	fs.insertErr = errors.New("connection reset")
	r := New(fs)

	err := r.InsertSummary(context.Background(), recordtest.Summary(t, "P1"))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Error("storage failure must not look like a conflict")
	}
}

func TestRepo_UnenrichedStopsAtLimit(t *testing.T) {
	fs := newFakeStore()
	r := New(fs)
	ctx := context.Background()
	for i := range 2 * scanPageSize {
		if err := r.InsertDocument(ctx, recordtest.Doc(t, fmt.Sprintf("d%04d", i))); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := r.UnenrichedIDs(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != "d0000" {
		t.Errorf("unexpected ids: %v", ids)
	}
	if fs.zcalls != 1 {
		t.Errorf("expected a single index page, got %d", fs.zcalls)
	}
}

func TestRepo_ZeroLimit(t *testing.T) {
	r := New(newFakeStore())
	ids, err := r.UnembeddedIDs(context.Background(), 0)
	if err != nil || ids != nil {
		t.Fatalf("expected nil, nil; got %v, %v", ids, err)
	}
}

func TestRepo_CloseRunsCloser(t *testing.T) {
	closed := false
	r := New(newFakeStore(), WithCloser(func() { closed = true }))
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !closed {
		t.Error("expected closer to run")
	}
}

type constEmbedder []float64

func (c constEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Vector: c}, nil
}

func TestRepo_SearchFillsKPastUnsummarized(t *testing.T) {
	r := New(newFakeStore())
	ctx := context.Background()

	// P1 matches the query exactly but was never summarized.
	if err := r.InsertDocument(ctx, recordtest.Doc(t, "P1")); err != nil {
		t.Fatal(err)
	}
	if err := r.InsertEmbedding(ctx, recordtest.Embedding(t, "P1", []float64{1, 0})); err != nil {
		t.Fatal(err)
	}
	for id, vec := range map[string][]float64{"P2": {1, 1}, "P3": {0, 1}} {
		if err := r.InsertDocument(ctx, recordtest.Doc(t, id)); err != nil {
			t.Fatal(err)
		}
		if err := r.InsertSummary(ctx, recordtest.Summary(t, id)); err != nil {
			t.Fatal(err)
		}
		if err := r.InsertEmbedding(ctx, recordtest.Embedding(t, id, vec)); err != nil {
			t.Fatal(err)
		}
	}

	hits, err := search.New(r, constEmbedder{1, 0}, search.Config{}).Search(ctx, "press", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 || hits[0].ID() != "P2" || hits[1].ID() != "P3" {
		ids := make([]string, len(hits))
		for i, h := range hits {
			ids[i] = h.ID()
		}
		t.Fatalf("hits = %v, want [P2 P3]", ids)
	}
}
