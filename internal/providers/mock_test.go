package providers

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMockClient(t *testing.T) {
	t.Run("chat", func(t *testing.T) {
		c := NewMockClient()
		c.ResponseText = "hello world"

		result, err := c.Chat(context.Background(), &ChatRequest{
			Model:    "test-model",
			Messages: []Message{{Role: "user", Content: "test"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Content != "hello world" {
			t.Errorf("Content = %q, want %q", result.Content, "hello world")
		}
		if result.ModelUsed != "test-model" {
			t.Errorf("ModelUsed = %q", result.ModelUsed)
		}
		if c.RequestCount() != 1 {
			t.Errorf("RequestCount = %d, want 1", c.RequestCount())
		}
	})

	t.Run("captures requests", func(t *testing.T) {
		c := NewMockClient()
		img := ImageURL{URL: "data:image/png;base64,AA", Detail: ImageDetailHigh}
		_, _ = c.Chat(context.Background(), &ChatRequest{Messages: []Message{UserMessage("a")}})
		_, _ = c.Chat(context.Background(), &ChatRequest{Messages: []Message{UserMessage("b", img)}})

		reqs := c.Requests()
		if len(reqs) != 2 {
			t.Fatalf("captured %d requests, want 2", len(reqs))
		}
		last := c.LastRequest()
		if last.Messages[0].Content != "b" || len(last.Messages[0].Images) != 1 {
			t.Errorf("unexpected last request: %+v", last)
		}

		c.Reset()
		if c.RequestCount() != 0 || c.LastRequest() != nil {
			t.Error("Reset() did not clear state")
		}
	})

	t.Run("should fail", func(t *testing.T) {
		c := NewMockClient()
		c.ShouldFail = true

		if _, err := c.Chat(context.Background(), &ChatRequest{}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("fail after N", func(t *testing.T) {
		c := NewMockClient()
		c.FailAfter = 2

		for i := 0; i < 2; i++ {
			if _, err := c.Chat(context.Background(), &ChatRequest{}); err != nil {
				t.Errorf("request %d failed: %v", i+1, err)
			}
		}
		if _, err := c.Chat(context.Background(), &ChatRequest{}); err == nil {
			t.Error("expected third request to fail")
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		c := NewMockClient()
		c.Latency = time.Second

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if _, err := c.Chat(ctx, &ChatRequest{}); err == nil {
			t.Error("expected context error")
		}
	})

	t.Run("concurrent", func(t *testing.T) {
		c := NewMockClient()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = c.Chat(context.Background(), &ChatRequest{})
			}()
		}
		wg.Wait()
		if c.RequestCount() != 20 || len(c.Requests()) != 20 {
			t.Errorf("RequestCount = %d, captured = %d", c.RequestCount(), len(c.Requests()))
		}
	})
}
