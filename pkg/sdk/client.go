package patentdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/app"
	"github.com/kailas-cloud/patentdex/internal/config"
	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/batch"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/domain/search/result"
	"github.com/kailas-cloud/patentdex/internal/importer"
	"github.com/kailas-cloud/patentdex/internal/usecase/scheduler"
	"github.com/kailas-cloud/patentdex/internal/usecase/stats"
)

// Internal interfaces so tests can substitute use cases.
type documentStore interface {
	InsertDocument(ctx context.Context, doc patent.Document) error
}

type stageUseCase interface {
	Run(ctx context.Context, batchSize int) (batch.Report, error)
}

type searchUseCase interface {
	Search(ctx context.Context, query string, k int) ([]result.Result, error)
}

type drainUseCase interface {
	Drain(ctx context.Context) (scheduler.Result, error)
}

type statsUseCase interface {
	Report(ctx context.Context) (stats.Report, error)
}

type importUseCase interface {
	ImportFile(ctx context.Context, path string) (importer.Report, error)
}

// Client is the patentdex SDK entry point.
type Client struct {
	docs      documentStore
	enrichSvc stageUseCase
	embedSvc  stageUseCase
	searchSvc searchUseCase
	drainSvc  drainUseCase
	statsSvc  statsUseCase
	healthSvc healthUseCase
	importSvc importUseCase
	batchSize int
	closer    func() error
	obs       *observer
	logger    *zap.Logger
}

// New opens the record store and wires the pipelines around the supplied
// capabilities. The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{driver: config.DriverMemory}
	for _, o := range opts {
		o.apply(cc)
	}

	cfg, err := buildConfig(cc)
	if err != nil {
		return nil, err
	}
	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	b, err := app.OpenBackend(ctx, cfg.Database, cfg.Storage.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("patentdex: %w", err)
	}
	a, err := app.New(ctx, cfg, b, app.Models{
		Generator: adaptGenerator(cc.generator),
		Embedder:  adaptEmbedder(cc.embedder),
	}, cc.pipelineLogger)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("patentdex: %w", err)
	}

	return &Client{
		docs:      b.Records,
		enrichSvc: a.Enrich,
		embedSvc:  a.Embed,
		searchSvc: a.Search,
		drainSvc:  a.Drainer,
		statsSvc:  a.Stats,
		healthSvc: a.Health,
		importSvc: a.Importer,
		batchSize: cfg.Pipeline.BatchSize,
		closer:    a.Close,
		obs:       obs,
		logger:    cc.pipelineLogger,
	}, nil
}

// buildConfig maps options onto the service configuration so the SDK and the CLI
// share defaults and validation.
func buildConfig(cc *clientConfig) (config.Config, error) {
	idx := domain.DefaultIndexConfig()
	if cc.promptTemplate != "" {
		p, err := domain.NewPromptTemplate(cc.promptTemplate)
		if err != nil {
			return config.Config{}, fmt.Errorf("patentdex: %w", err)
		}
		idx.Prompt = p
	}
	if cc.generationModel != "" {
		idx.GenerationModel = cc.generationModel
	}
	if cc.embeddingModel != "" {
		idx.EmbeddingModel = cc.embeddingModel
	}
	if cc.dimensions < 0 {
		return config.Config{}, fmt.Errorf("patentdex: dimensions must be >= 0: %w", domain.ErrInvalidArgument)
	}
	idx.Dimensions = cc.dimensions

	var cfg config.Config
	cfg.Database = config.DatabaseConfig{
		Driver:     cc.driver,
		Addrs:      cc.addrs,
		Password:   cc.password,
		SQLitePath: cc.sqlitePath,
	}
	cfg.Storage.KeyPrefix = cc.keyPrefix
	cfg.Models.Provider.Name = "sdk"
	cfg.Models.Generation.Model = idx.GenerationModel
	cfg.Models.Generation.PromptTemplate = idx.Prompt.String()
	cfg.Models.Embedding.Model = idx.EmbeddingModel
	cfg.Models.Embedding.Dimensions = idx.Dimensions
	cfg.Models.Embedding.ContextWindowTokens = idx.ContextWindowTokens
	cfg.Models.Embedding.QueryInstruction = cc.queryInstruction
	cfg.Pipeline.Workers = cc.workers
	cfg.Pipeline.BatchSize = cc.batchSize
	cfg.Pipeline.MaxBatches = cc.maxBatches
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("patentdex: %w", err)
	}
	return cfg, nil
}

// Close releases all resources.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// AddDocuments loads documents into the store. Documents are immutable: an ID that
// is already present is reported with ErrAlreadyExists and left unchanged. The
// returned error is set only when the context ends or the store fails.
func (c *Client) AddDocuments(ctx context.Context, docs []Document) (_ []AddResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("add_documents", start, err) }()

	results := make([]AddResult, 0, len(docs))
	for i := range docs {
		if err = ctx.Err(); err != nil {
			return results, fmt.Errorf("add documents: %w", err)
		}
		d := &docs[i]
		doc, verr := patent.New(d.ID, d.Title, d.Abstract, patent.Fields{
			Classification: d.Classification,
			FilingDate:     d.FilingDate,
			ClaimCount:     d.ClaimCount,
			Metadata:       d.Metadata,
		})
		if verr != nil {
			if !errors.Is(verr, domain.ErrInvalidArgument) {
				verr = fmt.Errorf("%w: %w", domain.ErrInvalidArgument, verr)
			}
			results = append(results, AddResult{ID: d.ID, Err: verr})
			continue
		}
		switch ierr := c.docs.InsertDocument(ctx, doc); {
		case ierr == nil:
			results = append(results, AddResult{ID: d.ID, OK: true})
		case errors.Is(ierr, domain.ErrAlreadyExists):
			results = append(results, AddResult{ID: d.ID, Err: ierr})
		default:
			err = fmt.Errorf("add document %s: %w", d.ID, ierr)
			return results, err
		}
	}
	return results, nil
}

// ImportFile loads documents from a local .jsonl, .ndjson or .parquet file.
func (c *Client) ImportFile(ctx context.Context, path string) (_ ImportReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("import", start, err) }()

	rep, err := c.importSvc.ImportFile(ctx, path)
	if err != nil {
		return ImportReport{}, fmt.Errorf("import %s: %w", path, err)
	}
	return ImportReport(rep), nil
}

// Enrich summarizes up to batchSize documents that have no summary yet.
// batchSize <= 0 uses WithBatchSize. Item failures are reported in the result;
// the error is set when the whole run was aborted (quota, cancellation, or every
// model call failing).
func (c *Client) Enrich(ctx context.Context, batchSize int) (_ StageReport, err error) {
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)
	defer func() { c.obs.observeUsage("enrich", start, usage, err) }()
	return c.runStage(ctx, c.enrichSvc, batchSize)
}

// Embed embeds up to batchSize summaries that have no embedding yet.
func (c *Client) Embed(ctx context.Context, batchSize int) (_ StageReport, err error) {
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)
	defer func() { c.obs.observeUsage("embed", start, usage, err) }()
	return c.runStage(ctx, c.embedSvc, batchSize)
}

func (c *Client) runStage(ctx context.Context, svc stageUseCase, batchSize int) (StageReport, error) {
	if batchSize <= 0 {
		batchSize = c.batchSize
	}
	rep, err := svc.Run(ctx, batchSize)
	out := stageReportFrom(&rep)
	if err != nil {
		return out, fmt.Errorf("%s: %w", rep.Stage, err)
	}
	return out, nil
}

// Drain alternates Enrich and Embed until neither makes progress.
func (c *Client) Drain(ctx context.Context) (_ DrainReport, err error) {
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)
	defer func() { c.obs.observeUsage("drain", start, usage, err) }()

	res, err := c.drainSvc.Drain(ctx)
	out := DrainReport(res)
	if err != nil {
		return out, fmt.Errorf("drain: %w", err)
	}
	return out, nil
}

// Search returns the k documents nearest to query by cosine distance of their
// summary embeddings, closest first.
func (c *Client) Search(ctx context.Context, query string, k int) (_ []SearchResult, err error) {
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)
	defer func() { c.obs.observeUsage("search", start, usage, err) }()

	hits, err := c.searchSvc.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]SearchResult, len(hits))
	for i := range hits {
		out[i] = SearchResult{
			ID:       hits[i].ID(),
			Title:    hits[i].Title(),
			Abstract: hits[i].Abstract(),
			Distance: hits[i].Distance(),
		}
	}
	return out, nil
}

// Stats reports the size of each record set.
func (c *Client) Stats(ctx context.Context) (_ Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	rep, err := c.statsSvc.Report(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return Stats{
		Documents:  rep.Counts.Documents,
		Summaries:  rep.Counts.Summaries,
		Embeddings: rep.Counts.Embeddings,
		Unenriched: rep.Unenriched,
		Unembedded: rep.Unembedded,
	}, nil
}

func stageReportFrom(rep *batch.Report) StageReport {
	items := make([]ItemResult, len(rep.Items))
	for i, it := range rep.Items {
		items[i] = ItemResult{ID: it.ID(), Status: ItemStatus(it.Status()), Err: it.Err()}
	}
	return StageReport{
		RunID:     rep.RunID,
		Stage:     string(rep.Stage),
		Selected:  rep.Selected(),
		Processed: rep.Processed(),
		Skipped:   rep.Skipped(),
		Failed:    rep.Failed(),
		Duration:  rep.Duration,
		Items:     items,
	}
}
