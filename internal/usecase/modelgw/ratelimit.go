package modelgw

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/metrics"
)

// RateLimitConfig holds the token bucket settings shared by both capabilities.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero or less disables limiting.
	RequestsPerSecond float64
	// Burst is the maximum burst size.
	Burst int
}

// NewLimiter builds a token bucket, or nil when limiting is disabled.
func NewLimiter(cfg RateLimitConfig) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
}

func wait(ctx context.Context, limiter *rate.Limiter, capability string) error {
	if limiter == nil {
		return nil
	}
	start := time.Now()
	err := limiter.Wait(ctx)
	metrics.ModelRateLimitWait.WithLabelValues(capability).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("rate limit wait: %w: %w", domain.ErrModelUnavailable, err)
	}
	return nil
}

// RateLimitedEmbedder blocks each call until the limiter grants a token.
type RateLimitedEmbedder struct {
	inner   domain.Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder wraps inner. A nil limiter passes calls through.
func NewRateLimitedEmbedder(inner domain.Embedder, limiter *rate.Limiter) *RateLimitedEmbedder {
	return &RateLimitedEmbedder{inner: inner, limiter: limiter}
}

// Embed waits for the limiter, then delegates.
func (e *RateLimitedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := wait(ctx, e.limiter, "embed"); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return e.inner.Embed(ctx, text)
}

// RateLimitedGenerator blocks each call until the limiter grants a token.
type RateLimitedGenerator struct {
	inner   domain.Generator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator wraps inner. A nil limiter passes calls through.
func NewRateLimitedGenerator(inner domain.Generator, limiter *rate.Limiter) *RateLimitedGenerator {
	return &RateLimitedGenerator{inner: inner, limiter: limiter}
}

// Generate waits for the limiter, then delegates.
func (g *RateLimitedGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if err := wait(ctx, g.limiter, "generate"); err != nil {
		return domain.GenerationResult{}, err
	}
	return g.inner.Generate(ctx, prompt)
}
