package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func openRouterReply(content string) map[string]any {
	return map[string]any{
		"id":    "test-id",
		"model": "openai/gpt-4.1-mini",
		"choices": []map[string]any{
			{
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
			"cost":              0.0002,
		},
	}
}

func TestOpenRouterClient_Chat(t *testing.T) {
	t.Run("successful chat", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(openRouterReply("Hello!"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !result.Success {
			t.Error("expected Success = true")
		}
		if result.Content != "Hello!" {
			t.Errorf("Content = %q", result.Content)
		}
		if result.TotalTokens != 18 {
			t.Errorf("TotalTokens = %d, want 18", result.TotalTokens)
		}
		if result.CostUSD != 0.0002 {
			t.Errorf("CostUSD = %v", result.CostUSD)
		}
		if result.Attempts != 1 {
			t.Errorf("Attempts = %d, want 1", result.Attempts)
		}
	})

	t.Run("structured output validated", func(t *testing.T) {
		var sentFormat atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req openRouterRequest
			json.NewDecoder(r.Body).Decode(&req)
			sentFormat.Store(req.ResponseFormat != nil)
			json.NewEncoder(w).Encode(openRouterReply("```json\n{\"rules\":[{\"clause\":\"3.2.1\"}]}\n```"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "test"}},
			ResponseFormat: testRuleFormat(),
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !sentFormat.Load() {
			t.Error("expected response_format in request")
		}
		if string(result.ParsedJSON) != `{"rules":[{"clause":"3.2.1"}]}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
	})

	t.Run("schema mismatch fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(openRouterReply(`{"rules":[{"title":"no clause"}]}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{
			ResponseFormat: testRuleFormat(),
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if result.ErrorType != "json_parse" {
			t.Errorf("ErrorType = %q", result.ErrorType)
		}
	})

	t.Run("anthropic model validated locally", func(t *testing.T) {
		var sentFormat atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req openRouterRequest
			json.NewDecoder(r.Body).Decode(&req)
			sentFormat.Store(req.ResponseFormat != nil)
			json.NewEncoder(w).Encode(openRouterReply(`Rules follow. {"rules":[{"clause":"6.4"}]}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL, DefaultModel: "anthropic/claude-sonnet-4"})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "chunk"}},
			ResponseFormat: testRuleFormat(),
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if sentFormat.Load() {
			t.Error("response_format should not be sent for anthropic models")
		}
		if string(result.ParsedJSON) != `{"rules":[{"clause":"6.4"}]}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
	})

	t.Run("content parts joined", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reply := openRouterReply("")
			reply["choices"] = []map[string]any{{
				"message": map[string]any{
					"role": "assistant",
					"content": []map[string]any{
						{"type": "text", "text": `{"rules":[{"clause":`},
						{"type": "reasoning", "text": "ignored"},
						{"type": "text", "text": `"3.1"}]}`},
					},
				},
				"finish_reason": "stop",
			}}
			json.NewEncoder(w).Encode(reply)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{ResponseFormat: testRuleFormat()})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if string(result.ParsedJSON) != `{"rules":[{"clause":"3.1"}]}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
	})

	t.Run("truncated output", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reply := openRouterReply(`{"rules":[{"clause":"3.2.1","fullText":"Basic FSI`)
			reply["choices"].([]map[string]any)[0]["finish_reason"] = "length"
			json.NewEncoder(w).Encode(reply)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{ResponseFormat: testRuleFormat()})
		if err == nil {
			t.Fatal("expected error")
		}
		if result.ErrorType != "truncated" {
			t.Errorf("ErrorType = %q, want truncated", result.ErrorType)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down"}}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{})
		rl, ok := AsRateLimit(err)
		if !ok {
			t.Fatalf("error = %v, want RateLimitError", err)
		}
		if rl.RetryAfter != 7*time.Second || result.RetryAfter != 7*time.Second {
			t.Errorf("RetryAfter = %v / %v", rl.RetryAfter, result.RetryAfter)
		}
		if result.ErrorType != "rate_limit" {
			t.Errorf("ErrorType = %q", result.ErrorType)
		}
	})

	t.Run("single attempt by default", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		if _, err := client.Chat(context.Background(), &ChatRequest{}); err == nil {
			t.Fatal("expected error")
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("calls = %d, want 1", got)
		}
	})

	t.Run("retries with nonce when configured", func(t *testing.T) {
		var calls atomic.Int32
		var lastContent atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req openRouterRequest
			json.NewDecoder(r.Body).Decode(&req)
			lastContent.Store(req.Messages[len(req.Messages)-1].Content)
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(openRouterReply("ok"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:      "test-key",
			BaseURL:     server.URL,
			MaxAttempts: 3,
			RetryDelay:  time.Millisecond,
		})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "chunk"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Attempts != 2 {
			t.Errorf("Attempts = %d, want 2", result.Attempts)
		}
		if s, _ := lastContent.Load().(string); !strings.Contains(s, "retry_") {
			t.Errorf("expected nonce in retried message, got %q", s)
		}
	})

	t.Run("non-retryable status stops early", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:      "bad",
			BaseURL:     server.URL,
			MaxAttempts: 3,
			RetryDelay:  time.Millisecond,
		})
		if _, err := client.Chat(context.Background(), &ChatRequest{}); err == nil {
			t.Fatal("expected error")
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("calls = %d, want 1", got)
		}
	})

	t.Run("api error in body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "content_filter"}})
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{})
		if err == nil || result.ErrorType != "api_error" {
			t.Errorf("err = %v, ErrorType = %q", err, result.ErrorType)
		}
		if err != nil && !strings.Contains(err.Error(), "content_filter") {
			t.Errorf("err = %v, want API message", err)
		}
	})
}

func TestShouldRetryStatus(t *testing.T) {
	tests := map[int]bool{
		400: false,
		401: false,
		413: true,
		422: true,
		500: true,
		503: true,
		522: true,
	}
	for code, want := range tests {
		if got := shouldRetryStatus(code); got != want {
			t.Errorf("shouldRetryStatus(%d) = %v, want %v", code, got, want)
		}
	}
}
