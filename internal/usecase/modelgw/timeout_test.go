package modelgw

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

func TestTimeoutEmbedder_DeadlineBecomesUnavailable(t *testing.T) {
	inner := &mockEmbedder{block: true}
	e := NewTimeoutEmbedder(inner, 20*time.Millisecond)

	start := time.Now()
	_, err := e.Embed(context.Background(), "slow")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded in chain, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("call did not respect the timeout")
	}
}

func TestTimeoutEmbedder_Disabled(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Vector: []float64{1, 2}}}
	e := NewTimeoutEmbedder(inner, 0)

	res, err := e.Embed(context.Background(), "fast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Vector) != 2 {
		t.Fatalf("expected 2 dims, got %d", len(res.Vector))
	}
}

func TestTimeoutGenerator_KeepsOtherErrors(t *testing.T) {
	inner := &mockGenerator{err: domain.ErrModelError}
	g := NewTimeoutGenerator(inner, time.Second)

	_, err := g.Generate(context.Background(), "p")
	if !errors.Is(err, domain.ErrModelError) || errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected plain ErrModelError, got %v", err)
	}
}

func TestTimeoutGenerator_DeadlineBecomesUnavailable(t *testing.T) {
	g := NewTimeoutGenerator(&mockGenerator{block: true}, 10*time.Millisecond)

	_, err := g.Generate(context.Background(), "p")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestWrapEmbedder_Chain(t *testing.T) {
	budget := newTracker(0, 0, BudgetActionWarn)
	inner := &mockEmbedder{result: domain.EmbeddingResult{Vector: []float64{1}, TotalTokens: 3}}
	e := WrapEmbedder(inner, Options{
		Model:     "m",
		RateLimit: RateLimitConfig{RequestsPerSecond: 100, Burst: 10},
		Timeout:   time.Second,
		Budget:    budget,
	})

	if _, err := e.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if budget.DailyUsed() != 3 {
		t.Errorf("expected 3 tokens recorded, got %d", budget.DailyUsed())
	}
}
