package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/config"
	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/importer"
	"github.com/kailas-cloud/patentdex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/patentdex/internal/repository/budget"
	"github.com/kailas-cloud/patentdex/internal/repository/embcache"
	"github.com/kailas-cloud/patentdex/internal/usecase/embed"
	"github.com/kailas-cloud/patentdex/internal/usecase/enrich"
	"github.com/kailas-cloud/patentdex/internal/usecase/health"
	"github.com/kailas-cloud/patentdex/internal/usecase/modelgw"
	"github.com/kailas-cloud/patentdex/internal/usecase/scheduler"
	"github.com/kailas-cloud/patentdex/internal/usecase/search"
	"github.com/kailas-cloud/patentdex/internal/usecase/stats"
)

// Budget counter TTLs; keys outlive their period so a late reader still sees the total.
const (
	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
)

// Models holds the raw gateway capabilities, before rate limiting, timeouts and budget.
// Either may be nil; the stage that needs it then fails every item with
// domain.ErrModelUnavailable.
type Models struct {
	Generator domain.Generator
	Embedder  domain.Embedder
}

// App holds the wired use cases.
type App struct {
	Config   config.Config
	Backend  *Backend
	Budget   *modelgw.BudgetTracker // nil when no token limit is configured
	Enrich   *enrich.Service
	Embed    *embed.Service
	Search   *search.Service
	Stats    *stats.Service
	Health   *health.Service
	Drainer  *scheduler.Drainer
	Importer *importer.Importer
}

// New wires the use cases over an opened backend.
func New(ctx context.Context, cfg config.Config, b *Backend, models Models, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Register()

	prompt, err := domain.NewPromptTemplate(cfg.Models.Generation.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("prompt template: %w", err)
	}

	budget := newBudget(ctx, cfg, b, logger)
	// Typed nil pointer must not leak into the interface.
	var checker modelgw.BudgetChecker
	var reader stats.BudgetReader
	if budget != nil {
		checker = budget
		reader = budget
	}

	rawGen := models.Generator
	if rawGen == nil {
		rawGen = unavailableGenerator{}
	}
	rawEmb := models.Embedder
	if rawEmb == nil {
		rawEmb = unavailableEmbedder{}
	}

	opts := func(model string) modelgw.Options {
		return modelgw.Options{
			Model: model,
			RateLimit: modelgw.RateLimitConfig{
				RequestsPerSecond: cfg.Models.RateLimit.RequestsPerSecond,
				Burst:             cfg.Models.RateLimit.Burst,
			},
			Timeout: cfg.Models.RequestTimeout(),
			Budget:  checker,
			Logger:  logger,
		}
	}
	gen := modelgw.WrapGenerator(rawGen, opts(cfg.Models.Generation.Model))
	docEmb := modelgw.WrapEmbedder(rawEmb, opts(cfg.Models.Embedding.Model))

	// The query path may sit behind an instruction prefix and a cache; document
	// embeddings never do.
	var queryEmb domain.Embedder = docEmb
	if inst := cfg.Models.Embedding.QueryInstruction; inst != "" {
		queryEmb = domain.NewInstructionEmbedder(queryEmb, inst)
	}
	if cfg.Models.Embedding.QueryCache.Enabled && b.KV != nil {
		queryEmb = embcache.New(queryEmb, b.KV, cfg.Storage.KeyPrefix, cfg.Models.Embedding.Model,
			cfg.Models.Embedding.QueryInstruction,
			time.Duration(cfg.Models.Embedding.QueryCache.TTLSec)*time.Second,
			metrics.QueryCacheTotal, logger)
	}

	enrichSvc := enrich.New(b.Records, gen, enrich.Config{
		Prompt:  prompt,
		Model:   cfg.Models.Generation.Model,
		Workers: cfg.Pipeline.Workers,
		Logger:  logger,
	})
	embedSvc := embed.New(b.Records, docEmb, embed.Config{
		Model:      cfg.Models.Embedding.Model,
		Dimensions: cfg.Models.Embedding.Dimensions,
		Workers:    cfg.Pipeline.Workers,
		Logger:     logger,
	})
	drainer := scheduler.NewDrainer(enrichSvc, embedSvc, cfg.Pipeline.BatchSize, cfg.Pipeline.MaxBatches).
		WithLogger(logger)

	return &App{
		Config:  cfg,
		Backend: b,
		Budget:  budget,
		Enrich:  enrichSvc,
		Embed:   embedSvc,
		Search: search.New(b.Records, queryEmb, search.Config{
			DefaultK:   cfg.Search.DefaultK,
			MaxK:       cfg.Search.MaxK,
			Dimensions: cfg.Models.Embedding.Dimensions,
			Logger:     logger,
		}),
		Stats: stats.New(b.Records, reader),
		Health: health.New(b.Records, map[string]health.ModelChecker{
			"generation": healthCheckerOf(models.Generator),
			"embedding":  healthCheckerOf(models.Embedder),
		}),
		Drainer:  drainer,
		Importer: importer.New(b.Records, logger),
	}, nil
}

// Scheduler returns the background drain loop, or nil when no interval is configured.
func (a *App) Scheduler() *scheduler.Runner {
	if a.Config.Pipeline.IntervalSec <= 0 {
		return nil
	}
	return scheduler.NewRunner(a.Drainer, time.Duration(a.Config.Pipeline.IntervalSec)*time.Second)
}

// Close releases the backend.
func (a *App) Close() error {
	return a.Backend.Close()
}

func newBudget(ctx context.Context, cfg config.Config, b *Backend, logger *zap.Logger) *modelgw.BudgetTracker {
	bc := cfg.Models.Provider.Budget
	if bc.DailyTokenLimit <= 0 && bc.MonthlyTokenLimit <= 0 {
		return nil
	}
	tracker := modelgw.NewBudgetTracker(modelgw.BudgetConfig{
		KeyPrefix:    cfg.Storage.KeyPrefix,
		Provider:     cfg.Models.Provider.Name,
		DailyLimit:   bc.DailyTokenLimit,
		MonthlyLimit: bc.MonthlyTokenLimit,
		Action:       modelgw.BudgetAction(bc.Action),
	}, logger)

	var store modelgw.BudgetStore
	if b.KV != nil {
		store = budgetrepo.New(b.KV, budgetDailyTTL, budgetMonthlyTTL)
	} else {
		store = budgetrepo.NewMemory(budgetDailyTTL, budgetMonthlyTTL)
	}
	return tracker.WithStore(ctx, store)
}

// healthCheckerOf returns nil unless the capability can report its own health.
func healthCheckerOf(v any) health.ModelChecker {
	if hc, ok := v.(domain.HealthChecker); ok {
		return hc
	}
	return nil
}

type unavailableGenerator struct{}

func (unavailableGenerator) Generate(context.Context, string) (domain.GenerationResult, error) {
	return domain.GenerationResult{}, fmt.Errorf("no generator configured: %w", domain.ErrModelUnavailable)
}

type unavailableEmbedder struct{}

func (unavailableEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("no embedder configured: %w", domain.ErrModelUnavailable)
}
