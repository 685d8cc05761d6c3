package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const chatCompletionReply = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini-2024-07-18",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"message": {"role": "assistant", "content": "{\"invoice_number\":\"INV-001\"}"}
	}],
	"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
}`

func TestOpenAIChatSuccess(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("unmarshal body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionReply))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Model:          "gpt-4o-mini",
		Messages:       []Message{UserMessage("extract the fields")},
		Temperature:    Temperature(0),
		MaxTokens:      256,
		ResponseFormat: &ResponseFormat{Type: ResponseFormatJSONObject},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if result.Content != `{"invoice_number":"INV-001"}` {
		t.Errorf("Content = %q", result.Content)
	}
	if result.PromptTokens != 42 || result.CompletionTokens != 7 || result.TotalTokens != 49 {
		t.Errorf("unexpected usage: %+v", result)
	}
	if result.Provider != OpenAIName {
		t.Errorf("Provider = %q", result.Provider)
	}
	if result.ModelUsed != "gpt-4o-mini-2024-07-18" {
		t.Errorf("ModelUsed = %q", result.ModelUsed)
	}

	if got, _ := payload["model"].(string); got != "gpt-4o-mini" {
		t.Errorf("model = %q", got)
	}
	temp, ok := payload["temperature"].(float64)
	if !ok || temp != 0 {
		t.Errorf("temperature = %#v, want explicit 0", payload["temperature"])
	}
	if got, _ := payload["max_completion_tokens"].(float64); got != 256 {
		t.Errorf("max_completion_tokens = %v", got)
	}
	format, _ := payload["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("response_format = %#v", payload["response_format"])
	}

	msgs, _ := payload["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %#v", payload["messages"])
	}
	msg, _ := msgs[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "extract the fields" {
		t.Errorf("message = %#v", msg)
	}
}

func TestOpenAIChatImageParts(t *testing.T) {
	var payload struct {
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type     string `json:"type"`
				Text     string `json:"text"`
				ImageURL struct {
					URL    string `json:"url"`
					Detail string `json:"detail"`
				} `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionReply))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Model: "gpt-4o",
		Messages: []Message{UserMessage("read this", ImageURL{
			URL:    "data:image/png;base64,AAAA",
			Detail: ImageDetailHigh,
		})},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if len(payload.Messages) != 1 || len(payload.Messages[0].Content) != 2 {
		t.Fatalf("unexpected messages: %+v", payload.Messages)
	}
	parts := payload.Messages[0].Content
	if parts[0].Type != "text" || parts[0].Text != "read this" {
		t.Errorf("first part = %+v", parts[0])
	}
	if parts[1].Type != "image_url" {
		t.Errorf("second part type = %q", parts[1].Type)
	}
	if parts[1].ImageURL.URL != "data:image/png;base64,AAAA" || parts[1].ImageURL.Detail != "high" {
		t.Errorf("image part = %+v", parts[1].ImageURL)
	}
}

func TestOpenAIChatRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL, RateLimit: 10})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{UserMessage("hi")},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	rle, ok := IsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rle.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", rle.RetryAfter)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want exactly 1 (no retries)", calls)
	}
	if status := client.LimiterStatus(); status.Last429Time.IsZero() {
		t.Error("limiter did not record the 429")
	}
}

func TestOpenAIChatServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{UserMessage("hi")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := IsRateLimitError(err); ok {
		t.Error("401 should not be a rate limit error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q should carry the status", err)
	}
}

func TestOpenAIChatRequiresMessages(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	if _, err := client.Chat(context.Background(), &ChatRequest{}); err == nil {
		t.Error("expected error for empty messages")
	}
}

func TestOpenAIChatContextCancelled(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: "http://127.0.0.1:0", RateLimit: 1})
	// Drain the single token so Wait blocks on the limiter.
	client.limiter.TryConsume()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Chat(ctx, &ChatRequest{Messages: []Message{UserMessage("hi")}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestOpenAIChatLive(t *testing.T) {
	cfg := LoadTestConfig()
	if !cfg.HasOpenAI() {
		t.Skip("OPENAI_API_KEY not set")
	}

	client := NewOpenAIClient(OpenAIConfig{APIKey: cfg.OpenAIAPIKey})
	obj, _, err := CompleteJSON(context.Background(), client, &ChatRequest{
		Messages:    []Message{UserMessage(`Return the JSON object {"ok": true}.`)},
		Temperature: Temperature(0),
	}, nil)
	if err != nil {
		t.Fatalf("CompleteJSON() error = %v", err)
	}
	if obj["ok"] != true {
		t.Errorf("unexpected reply: %#v", obj)
	}
}
