package patentdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

// Embedder converts text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator produces the summary text for a rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// HealthChecker is optionally implemented by an Embedder or Generator. When present,
// Health reports the capability under "embedding" or "generation".
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the vector and token counts.
// Truncated marks input that exceeded the model context window; the vector is
// stored anyway and flagged.
type EmbeddingResult struct {
	Embedding    []float64
	Truncated    bool
	PromptTokens int
	TotalTokens  int
}

// GenerationResult carries the generated text and token counts.
type GenerationResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// embedderAdapter wraps a public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Vector:       r.Embedding,
		Truncated:    r.Truncated,
		TokenCount:   float64(r.PromptTokens),
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

type checkedEmbedder struct {
	embedderAdapter
	HealthChecker
}

// generatorAdapter wraps a public Generator to satisfy domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a generatorAdapter) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	r, err := a.inner.Generate(ctx, prompt)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}
	return domain.GenerationResult{
		Text:         r.Text,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

type checkedGenerator struct {
	generatorAdapter
	HealthChecker
}

// adaptEmbedder keeps the health capability visible through the adapter.
func adaptEmbedder(e Embedder) domain.Embedder {
	if e == nil {
		return nil
	}
	a := embedderAdapter{inner: e}
	if hc, ok := e.(HealthChecker); ok {
		return checkedEmbedder{embedderAdapter: a, HealthChecker: hc}
	}
	return a
}

func adaptGenerator(g Generator) domain.Generator {
	if g == nil {
		return nil
	}
	a := generatorAdapter{inner: g}
	if hc, ok := g.(HealthChecker); ok {
		return checkedGenerator{generatorAdapter: a, HealthChecker: hc}
	}
	return a
}
