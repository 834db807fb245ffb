// Package openai binds the generation and embedding capabilities to an
// OpenAI-compatible HTTP API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/metrics"
)

const (
	capabilityGenerate = "generate"
	capabilityEmbed    = "embed"
)

// Config holds the provider settings shared by both capabilities.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	User    string
	Logger  *zap.Logger

	// Embedding only.
	Dimensions          int
	ContextWindowTokens int

	// Generation only.
	MaxTokens   int
	Temperature float32

	// HTTPClient overrides the default client (tests, proxies).
	HTTPClient *http.Client
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	return openai.NewClientWithConfig(clientCfg)
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// observe records the outcome of one provider call.
func observe(capability, model string, start time.Time, err error, errorType string) {
	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(capability, model, "error").Inc()
		metrics.ModelErrorsTotal.WithLabelValues(capability, model, errorType).Inc()
		return
	}
	metrics.ModelRequestsTotal.WithLabelValues(capability, model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(capability, model).Observe(time.Since(start).Seconds())
}

func observeTokens(capability, model string, prompt, total int) {
	if total <= 0 {
		return
	}
	metrics.ModelTokensTotal.WithLabelValues(capability, model, "prompt").Add(float64(prompt))
	metrics.ModelTokensTotal.WithLabelValues(capability, model, "total").Add(float64(total))
}

// classify maps a go-openai error onto the gateway error kinds.
// 5xx, 429, timeouts and transport failures are transient (ErrModelUnavailable);
// everything else the provider rejects is permanent (ErrModelError).
func classify(op string, err error) (string, error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout", fmt.Errorf("%s: %w: %w", op, domain.ErrModelUnavailable, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return statusError(op, reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(op, apiErr.HTTPStatusCode, apiErr.Message)
	}

	return "transport", fmt.Errorf("%s request failed: %w: %w", op, domain.ErrModelUnavailable, err)
}

func statusError(op string, status int, detail string) (string, error) {
	switch {
	case status == http.StatusTooManyRequests:
		return "rate_limited", fmt.Errorf("%s API error %d: %s: %w: %w",
			op, status, detail, domain.ErrModelUnavailable, domain.ErrRateLimited)
	case status >= http.StatusInternalServerError:
		return "server_error", fmt.Errorf("%s API error %d: %s: %w", op, status, detail, domain.ErrModelUnavailable)
	default:
		return "api_error", fmt.Errorf("%s API error %d: %s: %w", op, status, detail, domain.ErrModelError)
	}
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

// healthCheck verifies API availability via ListModels (free endpoint).
func healthCheck(ctx context.Context, c *openai.Client) error {
	if _, err := c.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
