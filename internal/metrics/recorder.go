package metrics

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/jackzampolin/docex/internal/providers"
)

// DefaultCapacity is the number of metrics kept before the oldest are dropped.
const DefaultCapacity = 10000

// Recorder keeps the most recent metrics in memory.
// It is safe for concurrent use.
type Recorder struct {
	mu       sync.RWMutex
	capacity int
	metrics  []Metric
	seq      uint64
}

// NewRecorder creates a recorder holding up to capacity metrics.
// A non-positive capacity uses DefaultCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{capacity: capacity}
}

// Record stores a metric and returns its id.
func (r *Recorder) Record(m Metric) string {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	m.ID = strconv.FormatUint(r.seq, 10)
	if len(r.metrics) >= r.capacity {
		// Drop the oldest.
		copy(r.metrics, r.metrics[1:])
		r.metrics = r.metrics[:len(r.metrics)-1]
	}
	r.metrics = append(r.metrics, m)
	return m.ID
}

// RecordLLMCall records the outcome of one chat call for the requested
// model. result may be nil when the call failed before the provider answered.
func (r *Recorder) RecordLLMCall(stage, provider, model string, result *providers.ChatResult, elapsed time.Duration, err error) string {
	m := Metric{
		Stage:            stage,
		Provider:         provider,
		Model:            model,
		ExecutionSeconds: elapsed.Seconds(),
		Success:          err == nil,
	}
	if result != nil {
		if result.ModelUsed != "" {
			m.Model = result.ModelUsed
		}
		m.PromptTokens = result.PromptTokens
		m.CompletionTokens = result.CompletionTokens
		m.TotalTokens = result.TotalTokens
		if result.Provider != "" {
			m.Provider = result.Provider
		}
		if result.ExecutionTime > 0 {
			m.ExecutionSeconds = result.ExecutionTime.Seconds()
		}
	}
	if err != nil {
		m.ErrorType = errorType(err)
	}
	return r.Record(m)
}

func errorType(err error) string {
	var rle *providers.RateLimitError
	switch {
	case errors.As(err, &rle):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "call_failed"
	}
}

// Instrument wraps client so every Chat call is recorded under stage.
func (r *Recorder) Instrument(stage string, client providers.LLMClient) providers.LLMClient {
	if r == nil || client == nil {
		return client
	}
	return &instrumented{rec: r, stage: stage, client: client}
}

type instrumented struct {
	rec    *Recorder
	stage  string
	client providers.LLMClient
}

func (c *instrumented) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	start := time.Now()
	result, err := c.client.Chat(ctx, req)
	c.rec.RecordLLMCall(c.stage, c.client.Name(), req.Model, result, time.Since(start), err)
	return result, err
}

func (c *instrumented) Name() string {
	return c.client.Name()
}
