package modelgw

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

// Options configures the decorator chain around a raw gateway capability.
type Options struct {
	Model     string
	RateLimit RateLimitConfig
	Timeout   time.Duration
	Budget    BudgetChecker
	Logger    *zap.Logger
}

// WrapEmbedder applies rate limit, timeout, then budget and instrumentation.
// The limiter wait happens outside the timeout so queueing does not eat into it.
func WrapEmbedder(inner domain.Embedder, opts Options) domain.Embedder {
	var e domain.Embedder = NewTimeoutEmbedder(inner, opts.Timeout)
	e = NewRateLimitedEmbedder(e, NewLimiter(opts.RateLimit))
	return NewInstrumentedEmbedder(e, opts.Model, opts.Budget, opts.Logger)
}

// WrapGenerator is the Generator counterpart of WrapEmbedder.
func WrapGenerator(inner domain.Generator, opts Options) domain.Generator {
	var g domain.Generator = NewTimeoutGenerator(inner, opts.Timeout)
	g = NewRateLimitedGenerator(g, NewLimiter(opts.RateLimit))
	return NewInstrumentedGenerator(g, opts.Model, opts.Budget, opts.Logger)
}
