package modelgw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

// TimeoutEmbedder bounds every call with a per-request deadline.
type TimeoutEmbedder struct {
	inner   domain.Embedder
	timeout time.Duration
}

// NewTimeoutEmbedder wraps inner. timeout <= 0 disables the bound.
func NewTimeoutEmbedder(inner domain.Embedder, timeout time.Duration) *TimeoutEmbedder {
	return &TimeoutEmbedder{inner: inner, timeout: timeout}
}

// Embed delegates under a deadline.
func (e *TimeoutEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if e.timeout <= 0 {
		return e.inner.Embed(ctx, text)
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, timeoutErr(err, e.timeout)
	}
	return res, nil
}

// TimeoutGenerator bounds every call with a per-request deadline.
type TimeoutGenerator struct {
	inner   domain.Generator
	timeout time.Duration
}

// NewTimeoutGenerator wraps inner. timeout <= 0 disables the bound.
func NewTimeoutGenerator(inner domain.Generator, timeout time.Duration) *TimeoutGenerator {
	return &TimeoutGenerator{inner: inner, timeout: timeout}
}

// Generate delegates under a deadline.
func (g *TimeoutGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if g.timeout <= 0 {
		return g.inner.Generate(ctx, prompt)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.inner.Generate(ctx, prompt)
	if err != nil {
		return domain.GenerationResult{}, timeoutErr(err, g.timeout)
	}
	return res, nil
}

// timeoutErr makes a deadline surface as ErrModelUnavailable.
func timeoutErr(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrModelUnavailable) {
		return fmt.Errorf("model call timed out after %s: %w: %w", timeout, domain.ErrModelUnavailable, err)
	}
	return err
}
