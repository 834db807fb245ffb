package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds the patentdex configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Models   ModelsConfig   `yaml:"models"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds record store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, sqlite, memory (default: sqlite)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	SQLitePath       string   `yaml:"sqlite_path"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// UsesKV reports whether the driver is a Redis-protocol server.
func (d DatabaseConfig) UsesKV() bool {
	return d.Driver == DriverRedis || d.Driver == DriverValkey
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// ModelsConfig holds model gateway settings.
type ModelsConfig struct {
	Provider          ProviderConfig   `yaml:"provider"`
	Generation        GenerationConfig `yaml:"generation"`
	Embedding         EmbeddingConfig  `yaml:"embedding"`
	RequestTimeoutSec int              `yaml:"request_timeout_sec"`
	RateLimit         RateLimitConfig  `yaml:"rate_limit"`
}

// RequestTimeout returns the per-call model deadline.
func (m ModelsConfig) RequestTimeout() time.Duration {
	return time.Duration(m.RequestTimeoutSec) * time.Second
}

// ProviderConfig holds the OpenAI-compatible endpoint settings.
type ProviderConfig struct {
	Name    string       `yaml:"name"` // budget key and log label
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	Budget  BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings shared by both capabilities.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// GenerationConfig holds enrichment model settings.
type GenerationConfig struct {
	Model          string  `yaml:"model"`
	PromptTemplate string  `yaml:"prompt_template"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Model               string           `yaml:"model"`
	Dimensions          int              `yaml:"dimensions"` // 0 = established by the first stored vector
	ContextWindowTokens int              `yaml:"context_window_tokens"`
	QueryInstruction    string           `yaml:"query_instruction"` // prepended to search queries only
	QueryCache          QueryCacheConfig `yaml:"query_cache"`
}

// QueryCacheConfig holds the search-path embedding cache settings.
type QueryCacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// RateLimitConfig holds the per-capability token bucket settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
}

// PipelineConfig holds enrichment and embedding batch settings.
type PipelineConfig struct {
	BatchSize   int `yaml:"batch_size"`
	Workers     int `yaml:"workers"`
	IntervalSec int `yaml:"interval_sec"` // serve-mode schedule, 0 disables
	MaxBatches  int `yaml:"max_batches"`  // per drain, 0 = until idle
}

// SearchConfig holds result size limits.
type SearchConfig struct {
	DefaultK int `yaml:"default_k"`
	MaxK     int `yaml:"max_k"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults, and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120 // pipeline triggers run a whole batch
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "patentdex.db"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "patentdex:"
	}
	c.Models.applyDefaults()
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = 50
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 4
	}
	if c.Search.DefaultK <= 0 {
		c.Search.DefaultK = 10
	}
	if c.Search.MaxK <= 0 {
		c.Search.MaxK = 100
	}
}

func (m *ModelsConfig) applyDefaults() {
	if m.Provider.Name == "" {
		m.Provider.Name = "openai"
	}
	if m.Provider.Budget.Action == "" {
		m.Provider.Budget.Action = "warn"
	}
	if m.Generation.Model == "" {
		m.Generation.Model = "gpt-4o-mini"
	}
	if m.Generation.PromptTemplate == "" {
		m.Generation.PromptTemplate = "Identify the areas of work or keywords in this abstract: {abstract}"
	}
	if m.Embedding.Model == "" {
		m.Embedding.Model = "text-embedding-3-small"
	}
	if m.Embedding.ContextWindowTokens <= 0 {
		m.Embedding.ContextWindowTokens = 8191
	}
	if m.Embedding.QueryCache.TTLSec <= 0 {
		m.Embedding.QueryCache.TTLSec = 86400
	}
	if m.RequestTimeoutSec <= 0 {
		m.RequestTimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of redis, valkey, sqlite, memory, got %q", c.Database.Driver)
	}
	switch c.Models.Provider.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf(
			"models.provider.budget.action must be \"warn\" or \"reject\", got %q",
			c.Models.Provider.Budget.Action,
		)
	}
	if !strings.Contains(c.Models.Generation.PromptTemplate, "{abstract}") {
		return fmt.Errorf("models.generation.prompt_template must contain {abstract}")
	}
	if c.Models.Embedding.Dimensions < 0 {
		return fmt.Errorf("models.embedding.dimensions must be >= 0, got %d", c.Models.Embedding.Dimensions)
	}
	if c.Models.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("models.rate_limit.requests_per_second must be >= 0")
	}
	if c.Pipeline.IntervalSec < 0 || c.Pipeline.MaxBatches < 0 {
		return fmt.Errorf("pipeline.interval_sec and pipeline.max_batches must be >= 0")
	}
	if c.Search.DefaultK > c.Search.MaxK {
		return fmt.Errorf("search.default_k (%d) must not exceed search.max_k (%d)", c.Search.DefaultK, c.Search.MaxK)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
