package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propfinder/internal/domain"
)

func newTestAnalyst(url string) *Analyst {
	return NewAnalyst(&Config{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "chat-model",
		Logger:  zap.NewNop(),
	}, 0, 0.2)
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  "chat-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 50, "completion_tokens": 20, "total_tokens": 70},
	})
	return string(b)
}

func TestAnalyst_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "chat-model" || req.MaxTokens != defaultMaxTokens {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "digest" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("  Encontramos 3 casas en Cancún.  ")))
	}))
	defer server.Close()

	got, err := newTestAnalyst(server.URL).Complete(context.Background(), "system", "digest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Encontramos 3 casas en Cancún." {
		t.Errorf("got %q", got)
	}
}

func TestAnalyst_BlankReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("   ")))
	}))
	defer server.Close()

	_, err := newTestAnalyst(server.URL).Complete(context.Background(), "s", "u")
	if !errors.Is(err, domain.ErrAnalysisUnavailable) {
		t.Fatalf("expected ErrAnalysisUnavailable, got %v", err)
	}
}

func TestAnalyst_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	_, err := newTestAnalyst(server.URL).Complete(context.Background(), "s", "u")
	if !errors.Is(err, domain.ErrAnalysisUnavailable) {
		t.Fatalf("expected ErrAnalysisUnavailable, got %v", err)
	}
}
