package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/docex/internal/config"
	"github.com/jackzampolin/docex/internal/extract"
	"github.com/jackzampolin/docex/internal/home"
	"github.com/jackzampolin/docex/internal/metrics"
	"github.com/jackzampolin/docex/internal/prompts"
	"github.com/jackzampolin/docex/internal/prompts/extraction"
	"github.com/jackzampolin/docex/internal/providers"
	"github.com/jackzampolin/docex/internal/raster"
	"github.com/jackzampolin/docex/internal/raster/fitz"
	"github.com/jackzampolin/docex/internal/recognize"
	"github.com/jackzampolin/docex/internal/recognize/tesseract"
	"github.com/jackzampolin/docex/internal/server"
	"github.com/jackzampolin/docex/internal/store"
)

// loadHome resolves and creates the home directory.
func loadHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg config.LogCfg) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// backendInit returns the server InitFunc that wires the store, the
// rasterizer, Tesseract and both recognition methods from cfgMgr.
func backendInit(cfgMgr *config.Manager, h *home.Dir, logger *slog.Logger) server.InitFunc {
	return func(ctx context.Context, registry *providers.Registry) (*server.Backend, error) {
		return buildBackend(ctx, cfgMgr.Get(), h, registry, logger)
	}
}

func buildBackend(ctx context.Context, cfg *config.Config, h *home.Dir, registry *providers.Registry, logger *slog.Logger) (*server.Backend, error) {
	st, err := openStore(ctx, cfg, h, logger)
	if err != nil {
		return nil, err
	}

	tempDir := cfg.OCR.TempDir
	if tempDir == "" {
		tempDir = h.TempPath()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	var rasterizer raster.Rasterizer
	switch cfg.OCR.Rasterizer {
	case "", "pdftoppm":
		rasterizer = raster.NewPoppler(tempDir, logger)
	case "fitz":
		rasterizer = fitz.New(logger)
	default:
		st.Close()
		return nil, fmt.Errorf("unknown rasterizer %q (supported: pdftoppm, fitz)", cfg.OCR.Rasterizer)
	}

	resolver := prompts.NewResolver(filepath.Join(h.Path(), "prompts"), logger)
	extraction.RegisterPrompts(resolver)

	ocr := tesseract.New(cfg.OCR.Languages, logger)
	llm := registry.Named(cfg.Defaults.LLMProvider)
	rec := metrics.NewRecorder(0)

	engine := extract.New(extract.Config{
		Local: &recognize.Local{
			Rasterizer: rasterizer,
			Recognizer: ocr,
			TempDir:    tempDir,
			DPI:        cfg.OCR.DPI,
			Logger:     logger,
		},
		Vision: &recognize.Vision{
			Rasterizer: rasterizer,
			LLM:        rec.Instrument(metrics.StageVision, llm),
			Model:      cfg.Defaults.VisionModel,
			MaxTokens:  cfg.Defaults.VisionMaxTokens,
			Detail:     cfg.Defaults.ImageDetail,
			TempDir:    tempDir,
			DPI:        cfg.OCR.DPI,
			Prompts:    resolver,
			Logger:     logger,
		},
		LLM:       rec.Instrument(metrics.StageTextParse, llm),
		TextModel: cfg.Defaults.TextModel,
		Prompts:   resolver,
		Logger:    logger,
	})

	rasterName := cfg.OCR.Rasterizer
	if rasterName == "" {
		rasterName = "pdftoppm"
	}
	return &server.Backend{
		Engine:     engine,
		Store:      st,
		Prompts:    resolver,
		Metrics:    rec,
		Rasterizer: rasterName,
		Languages:  ocr.Languages(),
		Close:      ocr.Close,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, h *home.Dir, logger *slog.Logger) (*store.Store, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		dir = h.StoragePath()
	}

	var index store.Index
	switch cfg.Storage.Index {
	case "", "memory":
		index = store.NewMemoryIndex()
	case "sqlite":
		idx, err := store.OpenSQLiteIndex(ctx, h.IndexPath())
		if err != nil {
			return nil, err
		}
		index = idx
	default:
		return nil, fmt.Errorf("unknown storage index %q (supported: memory, sqlite)", cfg.Storage.Index)
	}

	st, err := store.New(store.Config{
		Dir:        dir,
		Index:      index,
		MaxBytes:   cfg.MaxUploadBytes(),
		Extensions: cfg.Storage.AllowedExtensions,
		Logger:     logger,
	})
	if err != nil {
		index.Close()
		return nil, err
	}
	return st, nil
}
