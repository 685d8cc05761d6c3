package providers

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to limit", func(t *testing.T) {
		r := NewRateLimiter(3)
		for i := 0; i < 3; i++ {
			if !r.TryConsume() {
				t.Fatalf("TryConsume() #%d = false", i+1)
			}
		}
		if r.TryConsume() {
			t.Error("TryConsume() succeeded past the limit")
		}

		status := r.Status()
		if status.TotalConsumed != 3 || status.TokensLimit != 3 {
			t.Errorf("unexpected status: %+v", status)
		}
		if status.TimeUntilToken <= 0 {
			t.Errorf("TimeUntilToken = %v, want > 0", status.TimeUntilToken)
		}
	})

	t.Run("wait honours context", func(t *testing.T) {
		r := NewRateLimiter(1)
		r.TryConsume()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := r.Wait(ctx); err == nil {
			t.Error("Wait() should fail once the context expires")
		}
	})

	t.Run("wait refills", func(t *testing.T) {
		// 6000/min is one token every 10ms.
		r := NewRateLimiter(6000)
		for r.TryConsume() {
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := r.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	})

	t.Run("429 blocks until retry after", func(t *testing.T) {
		r := NewRateLimiter(6000)
		r.Record429(time.Hour)

		if r.TryConsume() {
			t.Error("TryConsume() succeeded while blocked")
		}
		if r.Status().Last429Time.IsZero() {
			t.Error("Last429Time not recorded")
		}
	})

	t.Run("default limit", func(t *testing.T) {
		if got := NewRateLimiter(0).Status().TokensLimit; got != 60 {
			t.Errorf("TokensLimit = %d, want 60", got)
		}
	})
}
