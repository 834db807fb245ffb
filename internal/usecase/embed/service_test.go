package embed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/metrics"
	"github.com/kailas-cloud/patentdex/internal/repository/memory"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type stubEmbedder struct {
	mu      sync.Mutex
	calls   int
	vectors map[string]domain.EmbeddingResult // by summary text
	def     domain.EmbeddingResult
	err     error
}

func (e *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	if r, ok := e.vectors[text]; ok {
		return r, nil
	}
	return e.def, nil
}

// seed loads n documents, summarizing the first summarized of them.
func seed(t *testing.T, s *memory.Store, n, summarized int) {
	t.Helper()
	ctx := context.Background()
	for i := range n {
		id := fmt.Sprintf("P%03d", i)
		doc, err := patent.New(id, "t", "abstract "+id, patent.Fields{})
		if err != nil {
			t.Fatalf("new document: %v", err)
		}
		if err := s.InsertDocument(ctx, doc); err != nil {
			t.Fatalf("insert document: %v", err)
		}
		if i >= summarized {
			continue
		}
		sum, err := patent.NewSummary(id, "summary "+id, "gen", time.Now())
		if err != nil {
			t.Fatalf("new summary: %v", err)
		}
		if err := s.InsertSummary(ctx, sum); err != nil {
			t.Fatalf("insert summary: %v", err)
		}
	}
}

func unitVector() domain.EmbeddingResult {
	return domain.EmbeddingResult{Vector: []float64{0.1, 0.2, 0.3}, TokenCount: 4, TotalTokens: 4}
}

func TestRun_EmbedsOnlySummarized(t *testing.T) {
	store := memory.New()
	seed(t, store, 5, 3)
	emb := &stubEmbedder{def: unitVector()}
	svc := New(store, emb, Config{Model: "text-embedding-3-small"})

	report, err := svc.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Selected() != 3 || report.Processed() != 3 {
		t.Fatalf("expected 3 selected and processed, got %d/%d", report.Selected(), report.Processed())
	}

	e, err := store.GetEmbedding(context.Background(), "P002")
	if err != nil {
		t.Fatalf("get embedding: %v", err)
	}
	if e.Model() != "text-embedding-3-small" || e.TokenCount() != 4 || e.Dimensions() != 3 {
		t.Errorf("unexpected embedding meta %+v", e.Meta())
	}
	if _, err := store.GetEmbedding(context.Background(), "P003"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unsummarized document must not be embedded, got %v", err)
	}
}

func TestRun_DrainIsIdempotent(t *testing.T) {
	store := memory.New()
	seed(t, store, 6, 6)
	emb := &stubEmbedder{def: unitVector()}
	svc := New(store, emb, Config{Workers: 2})

	total := 0
	for {
		report, err := svc.Run(context.Background(), 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Processed() == 0 {
			break
		}
		total += report.Processed()
	}
	if total != 6 || emb.calls != 6 {
		t.Fatalf("expected 6 embeddings from 6 calls, got %d from %d", total, emb.calls)
	}
}

func TestRun_TruncatedIsIndexedAndFlagged(t *testing.T) {
	store := memory.New()
	seed(t, store, 1, 1)
	res := unitVector()
	res.Truncated = true
	svc := New(store, &stubEmbedder{def: res}, Config{})

	report, err := svc.Run(context.Background(), 1)
	if err != nil || report.Processed() != 1 {
		t.Fatalf("expected truncated vector to be indexed, got %+v err=%v", report, err)
	}
	e, err := store.GetEmbedding(context.Background(), "P000")
	if err != nil {
		t.Fatalf("get embedding: %v", err)
	}
	if !e.Truncated() {
		t.Fatal("expected truncated flag to be stored")
	}
}

func TestRun_ZeroVectorFailsItem(t *testing.T) {
	store := memory.New()
	seed(t, store, 2, 2)
	emb := &stubEmbedder{
		def: unitVector(),
		vectors: map[string]domain.EmbeddingResult{
			"summary P000": {Vector: []float64{0, 0, 0}},
		},
	}
	svc := New(store, emb, Config{Workers: 1})

	report, err := svc.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("zero vector must not abort the batch: %v", err)
	}
	if report.Failed() != 1 || !errors.Is(report.Items[0].Err(), domain.ErrZeroVector) {
		t.Fatalf("expected ErrZeroVector for P000, got %+v", report.Items)
	}
	if report.Processed() != 1 {
		t.Fatalf("expected P001 to be embedded, got %d processed", report.Processed())
	}
}

func TestRun_DimensionMismatchIsFatal(t *testing.T) {
	store := memory.New()
	seed(t, store, 3, 3)
	emb := &stubEmbedder{
		def: unitVector(),
		vectors: map[string]domain.EmbeddingResult{
			"summary P001": {Vector: []float64{1, 2}},
		},
	}
	svc := New(store, emb, Config{Workers: 1})

	report, err := svc.Run(context.Background(), 3)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if report.Processed() != 1 {
		t.Errorf("expected only P000 stored, got %d", report.Processed())
	}
	counts, _ := store.Counts(context.Background())
	if counts.Embeddings != 1 {
		t.Fatalf("mismatched vector must not be stored, got %d embeddings", counts.Embeddings)
	}
}

func TestRun_FixedDimensions(t *testing.T) {
	store := memory.New()
	seed(t, store, 1, 1)
	svc := New(store, &stubEmbedder{def: unitVector()}, Config{Dimensions: 1536})

	_, err := svc.Run(context.Background(), 1)
	var mismatch *domain.DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
	if mismatch.Expected != 1536 || mismatch.Got != 3 {
		t.Errorf("unexpected mismatch %+v", mismatch)
	}
}

func TestRun_ModelErrorLeavesSummaryEligible(t *testing.T) {
	store := memory.New()
	seed(t, store, 2, 2)
	svc := New(store, &stubEmbedder{err: domain.ErrModelError}, Config{})

	report, err := svc.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("ErrModelError must stay item-level: %v", err)
	}
	if report.Failed() != 2 {
		t.Fatalf("expected 2 failed, got %d", report.Failed())
	}
	ids, _ := store.UnembeddedIDs(context.Background(), 10)
	if len(ids) != 2 {
		t.Fatalf("expected both summaries to stay pending, got %v", ids)
	}
}
