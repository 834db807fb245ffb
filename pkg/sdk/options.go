package patentdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "valkey", "redis", "sqlite" or "memory"
	addrs      []string
	password   string
	sqlitePath string
	keyPrefix  string

	generator Generator
	embedder  Embedder

	promptTemplate   string
	queryInstruction string
	generationModel  string
	embeddingModel   string
	dimensions       int
	workers          int
	batchSize        int
	maxBatches       int

	logger         *slog.Logger
	pipelineLogger *zap.Logger
	metricsReg     prometheus.Registerer
}

// WithValkey stores records in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores records in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSQLite stores records in a SQLite database file, created on first use.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.sqlitePath = path
	})
}

// WithMemory keeps records in process memory. This is the default.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithKeyPrefix namespaces Redis and Valkey keys. Default: "patentdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithGenerator sets the text generation capability used by Enrich.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithEmbedder sets the embedding capability used by Embed and Search.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithModels names the generation and embedding models recorded on each summary and
// embedding. Empty values keep the defaults.
func WithModels(generation, embedding string) Option {
	return optionFunc(func(c *clientConfig) {
		c.generationModel = generation
		c.embeddingModel = embedding
	})
}

// WithPromptTemplate sets the enrichment prompt. It must contain "{abstract}" and may
// contain "{title}".
func WithPromptTemplate(tmpl string) Option {
	return optionFunc(func(c *clientConfig) {
		c.promptTemplate = tmpl
	})
}

// WithQueryInstruction prepends text to search queries before embedding them.
// Document embeddings are unaffected.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithDimensions fixes the vector dimensionality. By default the first stored
// embedding establishes it.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithWorkers sets how many items of a batch are processed concurrently.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithBatchSize sets the batch size used by Drain and by Enrich/Embed when called
// with a non-positive size.
func WithBatchSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = n
	})
}

// WithMaxBatches caps the rounds of one Drain. Default: until idle.
func WithMaxBatches(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatches = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPipelineLogger receives the per-item and per-batch lines of the enrich, embed
// and drain pipelines, the gateway failure lines and truncation warnings.
// Pass nil to disable (default).
func WithPipelineLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.pipelineLogger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
