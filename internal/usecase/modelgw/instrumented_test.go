package modelgw

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Vector: []float64{0.1, 0.2, 0.3}, TotalTokens: 7}}
	p := NewInstrumentedEmbedder(inner, "test-model", nil, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	result, err := p.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Vector) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Vector))
	}
	if usage.TotalTokens() != 7 {
		t.Errorf("expected 7 tokens recorded in context, got %d", usage.TotalTokens())
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrModelError}
	p := NewInstrumentedEmbedder(inner, "test-model", nil, nil)

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrModelError) {
		t.Fatalf("expected ErrModelError, got %v", err)
	}
}

func TestInstrumentedEmbedder_BudgetRejection(t *testing.T) {
	budget := newTracker(100, 0, BudgetActionReject)
	budget.Record(100)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Vector: []float64{0.1}}}
	p := NewInstrumentedEmbedder(inner, "test-model", budget, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if inner.calls.Load() != 0 {
		t.Errorf("inner must not be called when budget is exhausted")
	}
}

func TestInstrumentedEmbedder_RecordsBudget(t *testing.T) {
	budget := newTracker(1000000, 10000000, BudgetActionReject)
	inner := &mockEmbedder{result: domain.EmbeddingResult{Vector: []float64{0.1}, TotalTokens: 500}}
	p := NewInstrumentedEmbedder(inner, "test-model", budget, zap.NewNop())

	before := budget.RemainingDaily()
	if _, err := p.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after := budget.RemainingDaily(); after != before-500 {
		t.Errorf("expected daily remaining to decrease by 500, got %d -> %d", before, after)
	}
}

func TestInstrumentedGenerator_SharesBudget(t *testing.T) {
	budget := newTracker(1000, 0, BudgetActionReject)
	gen := NewInstrumentedGenerator(
		&mockGenerator{result: domain.GenerationResult{Text: "keywords", TotalTokens: 600}},
		"gen-model", budget, zap.NewNop(),
	)
	emb := NewInstrumentedEmbedder(
		&mockEmbedder{result: domain.EmbeddingResult{Vector: []float64{1}, TotalTokens: 400}},
		"emb-model", budget, zap.NewNop(),
	)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := gen.Generate(ctx, "prompt"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := emb.Embed(ctx, "text"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if usage.TotalTokens() != 1000 {
		t.Errorf("expected 1000 tokens, got %d", usage.TotalTokens())
	}

	_, err := gen.Generate(ctx, "prompt")
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded after shared budget is spent, got %v", err)
	}
}

func TestInstrumentedGenerator_Error(t *testing.T) {
	inner := &mockGenerator{err: domain.ErrModelUnavailable}
	p := NewInstrumentedGenerator(inner, "gen-model", nil, nil)

	_, err := p.Generate(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
