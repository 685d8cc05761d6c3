package metrics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackzampolin/docex/internal/providers"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 50, 0},
		{"single", []float64{3}, 99, 3},
		{"median odd", []float64{1, 2, 3}, 50, 2},
		{"median even", []float64{1, 2, 3, 4}, 50, 2.5},
		{"max", []float64{1, 2, 3, 4}, 100, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.values, tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("percentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
			}
		})
	}
}

func TestRecorder_CapacityAndOrder(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Record(Metric{Stage: StageVision, TotalTokens: i})
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	got := r.List(Filter{}, 0)
	if got[0].TotalTokens != 4 || got[2].TotalTokens != 2 {
		t.Errorf("List() not newest first: %+v", got)
	}
	if got[0].ID != "5" {
		t.Errorf("newest id = %s, want 5", got[0].ID)
	}
	if n := len(r.List(Filter{}, 2)); n != 2 {
		t.Errorf("limit ignored: got %d", n)
	}
}

func TestFilter(t *testing.T) {
	r := NewRecorder(0)
	now := time.Now()
	r.Record(Metric{Stage: StageTextParse, Model: "gpt-4o-mini", Success: true, CreatedAt: now.Add(-time.Hour)})
	r.Record(Metric{Stage: StageVision, Model: "gpt-4o", Success: false, CreatedAt: now})

	ok := true
	tests := []struct {
		name string
		f    Filter
		want int
	}{
		{"all", Filter{}, 2},
		{"stage", Filter{Stage: StageVision}, 1},
		{"model", Filter{Model: "gpt-4o-mini"}, 1},
		{"success", Filter{Success: &ok}, 1},
		{"after", Filter{After: now.Add(-time.Minute)}, 1},
		{"before", Filter{Before: now.Add(-time.Minute)}, 1},
		{"no match", Filter{Provider: "nope"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(r.List(tt.f, 0)); got != tt.want {
				t.Errorf("List() = %d metrics, want %d", got, tt.want)
			}
		})
	}

	stats := r.GetDetailedStats(Filter{Stage: StageVision})
	if stats.Count != 1 || stats.ErrorCount != 1 {
		t.Errorf("GetDetailedStats() counts = %d/%d, want 1/1", stats.Count, stats.ErrorCount)
	}
}

func TestGetSummary(t *testing.T) {
	r := NewRecorder(0)
	r.Record(Metric{Stage: StageTextParse, Model: "gpt-4o-mini", TotalTokens: 100, PromptTokens: 80, CompletionTokens: 20, ExecutionSeconds: 1, Success: true})
	r.Record(Metric{Stage: StageTextParse, Model: "gpt-4o-mini", TotalTokens: 50, ExecutionSeconds: 3, Success: true})
	r.Record(Metric{Stage: StageVision, Model: "gpt-4o", ExecutionSeconds: 2, ErrorType: "timeout"})

	s := r.GetSummary(Filter{})
	if s.Count != 3 || s.SuccessCount != 2 || s.ErrorCount != 1 {
		t.Errorf("counts = %d/%d/%d", s.Count, s.SuccessCount, s.ErrorCount)
	}
	if s.TotalTokens != 150 || s.AvgTotalTokens != 50 {
		t.Errorf("tokens = %d avg %v", s.TotalTokens, s.AvgTotalTokens)
	}
	if s.LatencyMin != 1 || s.LatencyMax != 3 || s.LatencyP50 != 2 {
		t.Errorf("latency min/max/p50 = %v/%v/%v", s.LatencyMin, s.LatencyMax, s.LatencyP50)
	}
	if s.ByStage[StageTextParse].Count != 2 || s.ByStage[StageVision].ErrorCount != 1 {
		t.Errorf("by stage = %+v", s.ByStage)
	}
	if s.ByModel["gpt-4o-mini"] != 150 {
		t.Errorf("by model = %v", s.ByModel)
	}
	if s.ByErrors["timeout"] != 1 {
		t.Errorf("by errors = %v", s.ByErrors)
	}
}

func TestInstrument(t *testing.T) {
	r := NewRecorder(0)

	t.Run("success", func(t *testing.T) {
		mock := providers.NewMockClient()
		client := r.Instrument(StageTextParse, mock)
		if client.Name() != mock.Name() {
			t.Errorf("Name() = %s", client.Name())
		}
		if _, err := client.Chat(context.Background(), &providers.ChatRequest{Model: "gpt-4o-mini"}); err != nil {
			t.Fatal(err)
		}
		got := r.List(Filter{Stage: StageTextParse}, 0)
		if len(got) != 1 || !got[0].Success || got[0].Provider != providers.MockClientName {
			t.Errorf("recorded = %+v", got)
		}
	})

	t.Run("failure", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ShouldFail = true
		mock.Err = &providers.RateLimitError{}
		client := r.Instrument(StageVision, mock)
		_, err := client.Chat(context.Background(), &providers.ChatRequest{Model: "gpt-4o"})
		if err == nil {
			t.Fatal("expected error")
		}
		got := r.List(Filter{Stage: StageVision}, 0)
		if len(got) != 1 || got[0].Success || got[0].Model != "gpt-4o" {
			t.Fatalf("recorded = %+v", got)
		}
		if !errors.As(err, new(*providers.RateLimitError)) || got[0].ErrorType != "rate_limited" {
			t.Errorf("error type = %s", got[0].ErrorType)
		}
	})

	t.Run("nil recorder", func(t *testing.T) {
		var nilRec *Recorder
		mock := providers.NewMockClient()
		if nilRec.Instrument(StageVision, mock) != providers.LLMClient(mock) {
			t.Error("nil recorder should return client unchanged")
		}
	})
}
