package domain

import (
	"context"
	"fmt"
)

// Embedder is the embedding capability of the model gateway.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator is the text-generation capability of the model gateway.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// HealthChecker verifies model provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the vector and provider metadata through the decorator chain.
type EmbeddingResult struct {
	Vector       []float64
	Truncated    bool    // input exceeded the model context window
	TokenCount   float64 // tokens the provider attributed to the input
	PromptTokens int
	TotalTokens  int
}

// GenerationResult carries generated text and token usage.
type GenerationResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// InstructionEmbedder is a domain decorator that prepends instruction text before embedding.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends instruction and delegates to inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// DimensionSource records and reports the corpus-wide vector dimensionality.
type DimensionSource interface {
	// EstablishDimensions stores n if no dimensionality is recorded yet and
	// returns the recorded value.
	EstablishDimensions(ctx context.Context, n int) (int, error)
}

// DimensionGuard rejects embeddings whose length differs from the corpus dimensionality.
// A fixed dimensionality wins; otherwise the first vector seen by the source establishes it.
type DimensionGuard struct {
	inner  Embedder
	fixed  int
	source DimensionSource
}

// NewDimensionGuard wraps inner. fixed <= 0 defers to source; source may be nil when fixed > 0.
func NewDimensionGuard(inner Embedder, fixed int, source DimensionSource) *DimensionGuard {
	return &DimensionGuard{inner: inner, fixed: fixed, source: source}
}

// Embed delegates and validates the returned vector length.
func (g *DimensionGuard) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := g.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, err
	}
	if len(res.Vector) == 0 {
		return EmbeddingResult{}, fmt.Errorf("empty embedding vector: %w", ErrModelError)
	}

	expected := g.fixed
	if expected <= 0 && g.source != nil {
		expected, err = g.source.EstablishDimensions(ctx, len(res.Vector))
		if err != nil {
			return EmbeddingResult{}, fmt.Errorf("establish dimensions: %w", err)
		}
	}
	if expected > 0 && len(res.Vector) != expected {
		return EmbeddingResult{}, NewDimensionMismatch(expected, len(res.Vector))
	}
	return res, nil
}
