package chi

import (
	"context"

	"github.com/kailas-cloud/patentdex/internal/domain/batch"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/domain/search/result"
	"github.com/kailas-cloud/patentdex/internal/usecase/health"
	"github.com/kailas-cloud/patentdex/internal/usecase/stats"
)

// Searcher answers similarity queries.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]result.Result, error)
	DefaultK() int
}

// StageRunner runs one pipeline batch.
type StageRunner interface {
	Run(ctx context.Context, batchSize int) (batch.Report, error)
}

// DocumentReader reads a document and its derived records.
type DocumentReader interface {
	GetDocument(ctx context.Context, id string) (patent.Document, error)
	GetSummary(ctx context.Context, id string) (patent.Summary, error)
	GetEmbedding(ctx context.Context, id string) (patent.Embedding, error)
}

// StatsReporter builds the corpus progress report.
type StatsReporter interface {
	Report(ctx context.Context) (stats.Report, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
