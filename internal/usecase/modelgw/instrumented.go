package modelgw

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// InstrumentedEmbedder wraps an Embedder with budget enforcement, per-request
// usage accounting, and logging. Transport metrics live in transport/openai.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	model  string
	budget BudgetChecker
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. budget may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, model string, budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{inner: inner, model: model, budget: budget, logger: logger}
}

// Embed checks the budget, delegates, and records usage.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := checkBudget(ctx, p.budget); err != nil {
		p.logger.Error("Budget exceeded", zap.String("capability", "embed"),
			zap.String("model", p.model), zap.Error(err))
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)
	if err != nil {
		p.logger.Debug("Embedding request failed",
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	recordUsage(ctx, p.budget, result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Vector)),
		zap.Int("total_tokens", result.TotalTokens),
		zap.Bool("truncated", result.Truncated),
	)
	return result, nil
}

// InstrumentedGenerator is the Generator counterpart of InstrumentedEmbedder.
type InstrumentedGenerator struct {
	inner  domain.Generator
	model  string
	budget BudgetChecker
	logger *zap.Logger
}

// NewInstrumentedGenerator wraps a generator. budget may be nil.
func NewInstrumentedGenerator(
	inner domain.Generator, model string, budget BudgetChecker, logger *zap.Logger,
) *InstrumentedGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedGenerator{inner: inner, model: model, budget: budget, logger: logger}
}

// Generate checks the budget, delegates, and records usage.
func (p *InstrumentedGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if err := checkBudget(ctx, p.budget); err != nil {
		p.logger.Error("Budget exceeded", zap.String("capability", "generate"),
			zap.String("model", p.model), zap.Error(err))
		return domain.GenerationResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Generate(ctx, prompt)
	duration := time.Since(start)
	if err != nil {
		p.logger.Debug("Generation request failed",
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	recordUsage(ctx, p.budget, result.TotalTokens)

	p.logger.Debug("Generation request completed",
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("chars", len(result.Text)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

func checkBudget(ctx context.Context, budget BudgetChecker) error {
	if budget == nil {
		return nil
	}
	if err := budget.Check(ctx); err != nil {
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func recordUsage(ctx context.Context, budget BudgetChecker, tokens int) {
	domain.UsageFromContext(ctx).AddTokens(tokens)
	if budget != nil && tokens > 0 {
		budget.Record(int64(tokens))
	}
}
