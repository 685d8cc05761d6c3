package svcctx

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jackzampolin/docex/internal/metrics"
	"github.com/jackzampolin/docex/internal/providers"
)

func TestServicesFrom(t *testing.T) {
	t.Run("missing services", func(t *testing.T) {
		ctx := context.Background()
		if ServicesFrom(ctx) != nil {
			t.Error("expected nil services")
		}
		if EngineFrom(ctx) != nil || StoreFrom(ctx) != nil || RegistryFrom(ctx) != nil || MetricsFrom(ctx) != nil {
			t.Error("expected nil extractors")
		}
		if LoggerFrom(ctx) != slog.Default() {
			t.Error("expected default logger fallback")
		}
	})

	t.Run("attached services", func(t *testing.T) {
		reg := providers.NewRegistry()
		logger := slog.New(slog.DiscardHandler)
		rec := metrics.NewRecorder(0)
		ctx := WithServices(context.Background(), &Services{Registry: reg, Logger: logger, Metrics: rec})

		if MetricsFrom(ctx) != rec {
			t.Error("metrics recorder not returned")
		}

		if RegistryFrom(ctx) != reg {
			t.Error("registry not returned")
		}
		if LoggerFrom(ctx) != logger {
			t.Error("logger not returned")
		}
	})
}
