package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

// Generator implements domain.Generator over the chat completions endpoint.
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	user        string
	logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible text generation provider.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client:      newClient(cfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		user:        cfg.User,
		logger:      loggerOrNop(cfg.Logger),
	}
}

// Generate sends prompt as a single user message and returns the first choice.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
		User:        g.user,
	}
	if g.maxTokens > 0 {
		req.MaxTokens = g.maxTokens
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		kind, wrapped := classify("generation", err)
		observe(capabilityGenerate, g.model, start, wrapped, kind)
		return domain.GenerationResult{}, wrapped
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		err := fmt.Errorf("empty completion response: %w", domain.ErrModelError)
		observe(capabilityGenerate, g.model, start, err, "empty_response")
		return domain.GenerationResult{}, err
	}
	observe(capabilityGenerate, g.model, start, nil, "")
	observeTokens(capabilityGenerate, g.model, resp.Usage.PromptTokens, resp.Usage.TotalTokens)

	if reason := resp.Choices[0].FinishReason; reason == openai.FinishReasonLength {
		g.logger.Debug("Completion stopped at max tokens", zap.String("model", g.model))
	}

	return domain.GenerationResult{
		Text:         strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability.
func (g *Generator) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, g.client)
}
