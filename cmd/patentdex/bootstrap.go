package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/app"
	"github.com/kailas-cloud/patentdex/internal/config"
	logpkg "github.com/kailas-cloud/patentdex/internal/logger"
	"github.com/kailas-cloud/patentdex/internal/transport/openai"
	"github.com/kailas-cloud/patentdex/internal/version"
)

// configError marks failures that exit with ExitConfigError.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ce *configError
	if errors.As(err, &ce) {
		return ExitConfigError
	}
	return ExitError
}

// loadConfig reads .env (if any), then the YAML config selected by --config or ENV.
func loadConfig() (config.Config, string, error) {
	_ = godotenv.Load()
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, env, &configError{err: err}
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, env, nil
}

// bootstrap loads configuration, opens the backend and wires the application.
// The caller owns the returned app and logger.
func bootstrap(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, env, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, nil, &configError{err: fmt.Errorf("create logger: %w", err)}
	}

	logger.Debug("Starting patentdex",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("generation_model", cfg.Models.Generation.Model),
		zap.String("embedding_model", cfg.Models.Embedding.Model),
	)

	backend, err := app.OpenBackend(ctx, cfg.Database, cfg.Storage.KeyPrefix)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	a, err := app.New(ctx, cfg, backend, buildModels(cfg, logger), logger)
	if err != nil {
		_ = backend.Close()
		_ = logger.Sync()
		return nil, nil, &configError{err: err}
	}
	return a, logger, nil
}

// buildModels creates the OpenAI-compatible clients. Without credentials or a base URL
// both capabilities are left unset and every model call reports unavailability.
func buildModels(cfg config.Config, logger *zap.Logger) app.Models {
	p := cfg.Models.Provider
	if p.APIKey == "" && p.BaseURL == "" {
		logger.Warn("No model provider configured; enrich, embed and search will fail",
			zap.String("provider", p.Name))
		return app.Models{}
	}
	gen := openai.NewGenerator(&openai.Config{
		APIKey:      p.APIKey,
		BaseURL:     p.BaseURL,
		Model:       cfg.Models.Generation.Model,
		MaxTokens:   cfg.Models.Generation.MaxTokens,
		Temperature: cfg.Models.Generation.Temperature,
		Logger:      logger,
	})
	emb := openai.NewEmbedder(&openai.Config{
		APIKey:              p.APIKey,
		BaseURL:             p.BaseURL,
		Model:               cfg.Models.Embedding.Model,
		Dimensions:          cfg.Models.Embedding.Dimensions,
		ContextWindowTokens: cfg.Models.Embedding.ContextWindowTokens,
		Logger:              logger,
	})
	return app.Models{Generator: gen, Embedder: emb}
}

// withApp runs fn with a bootstrapped application and releases it afterwards.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App, logger *zap.Logger) error) error {
	a, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("Close failed", zap.Error(cerr))
		}
		_ = logger.Sync()
	}()
	return fn(logpkg.ContextWithLogger(ctx, logger), a, logger)
}
