package domain

import (
	"context"
	"sync/atomic"
)

type modelUsageKey struct{}

// ModelUsage collects token usage for a single request.
// The handler puts a pointer into the context before calling the service;
// gateway decorators add tokens (possibly from several workers); the handler reads
// the totals for response headers.
type ModelUsage struct {
	tokens atomic.Int64
	used   atomic.Bool // true if a model was called, even on a cache hit with 0 tokens
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *ModelUsage) {
	u := &ModelUsage{}
	return context.WithValue(ctx, modelUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *ModelUsage {
	u, _ := ctx.Value(modelUsageKey{}).(*ModelUsage)
	return u
}

// AddTokens records consumed tokens.
func (u *ModelUsage) AddTokens(n int) {
	if u != nil {
		u.tokens.Add(int64(n))
		u.used.Store(true)
	}
}

// TotalTokens returns the tokens recorded so far.
func (u *ModelUsage) TotalTokens() int64 {
	if u == nil {
		return 0
	}
	return u.tokens.Load()
}

// Used reports whether any model call was recorded.
func (u *ModelUsage) Used() bool {
	return u != nil && u.used.Load()
}
