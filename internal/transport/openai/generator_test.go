package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

func chatServer(t *testing.T, content string, check func(req map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(req)
		}

		resp := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gen-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 8, "total_tokens": 38},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestGenerator(url string) *Generator {
	return NewGenerator(&Config{
		APIKey:    "test-key",
		BaseURL:   url,
		Model:     "gen-model",
		MaxTokens: 64,
		Logger:    zap.NewNop(),
	})
}

func TestGenerator_Generate(t *testing.T) {
	prompt := "Identify the areas of work or keywords in this abstract: A method for neural text classification."
	server := chatServer(t, "  keywords: transformers, text classification\n", func(req map[string]any) {
		if req["model"] != "gen-model" {
			t.Errorf("unexpected model: %v", req["model"])
		}
		msgs, _ := req["messages"].([]any)
		if len(msgs) != 1 {
			t.Fatalf("expected one message, got %v", req["messages"])
		}
		msg, _ := msgs[0].(map[string]any)
		if msg["role"] != "user" || msg["content"] != prompt {
			t.Errorf("unexpected message: %v", msg)
		}
		if req["max_tokens"] != float64(64) {
			t.Errorf("unexpected max_tokens: %v", req["max_tokens"])
		}
	})

	res, err := newTestGenerator(server.URL).Generate(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Text != "keywords: transformers, text classification" {
		t.Errorf("unexpected text: %q", res.Text)
	}
	if res.PromptTokens != 30 || res.TotalTokens != 38 {
		t.Errorf("unexpected usage: %+v", res)
	}
}

func TestGenerator_EmptyCompletion(t *testing.T) {
	server := chatServer(t, "   ", nil)

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "p")
	if !errors.Is(err, domain.ErrModelError) {
		t.Fatalf("expected ErrModelError, got %v", err)
	}
}

func TestGenerator_ServerError(t *testing.T) {
	server := errorServer(t, http.StatusServiceUnavailable,
		map[string]any{"error": map[string]any{"message": "overloaded", "type": "server_error"}})

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "p")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestGenerator_BadRequest(t *testing.T) {
	server := errorServer(t, http.StatusBadRequest,
		map[string]any{"error": map[string]any{"message": "context length exceeded", "type": "invalid_request_error"}})

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "p")
	if !errors.Is(err, domain.ErrModelError) {
		t.Fatalf("expected ErrModelError, got %v", err)
	}
	if errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatal("permanent errors must not look transient")
	}
}
