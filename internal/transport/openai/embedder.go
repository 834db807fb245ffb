package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

// Embedder implements domain.Embedder over the embeddings endpoint.
type Embedder struct {
	client        *openai.Client
	model         openai.EmbeddingModel
	dimensions    int
	contextWindow int
	user          string
	logger        *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		client:        newClient(cfg),
		model:         openai.EmbeddingModel(cfg.Model),
		dimensions:    cfg.Dimensions,
		contextWindow: cfg.ContextWindowTokens,
		user:          cfg.User,
		logger:        loggerOrNop(cfg.Logger),
	}
}

// Embed returns the vector with usage. Truncated is set when the prompt filled the
// model context window, meaning the provider dropped the tail of the input.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	model := string(e.model)
	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		kind, wrapped := classify("embedding", err)
		observe(capabilityEmbed, model, start, wrapped, kind)
		return domain.EmbeddingResult{}, wrapped
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		err := fmt.Errorf("empty embedding response: %w", domain.ErrModelError)
		observe(capabilityEmbed, model, start, err, "empty_response")
		return domain.EmbeddingResult{}, err
	}
	observe(capabilityEmbed, model, start, nil, "")

	promptTokens := resp.Usage.PromptTokens
	observeTokens(capabilityEmbed, model, promptTokens, resp.Usage.TotalTokens)

	raw := resp.Data[0].Embedding
	vec := make([]float64, len(raw))
	for i, f := range raw {
		vec[i] = float64(f)
	}

	truncated := e.contextWindow > 0 && promptTokens >= e.contextWindow
	if truncated {
		e.logger.Warn("Embedding input reached the context window",
			zap.String("model", model),
			zap.Int("prompt_tokens", promptTokens),
			zap.Int("context_window", e.contextWindow),
		)
	}

	return domain.EmbeddingResult{
		Vector:       vec,
		Truncated:    truncated,
		TokenCount:   float64(promptTokens),
		PromptTokens: promptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, e.client)
}
