// Package extract orchestrates one extraction request: recognize the
// document with the chosen method, have a model map it onto the requested
// fields, then reconcile the model's answer to exactly the requested keys.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jackzampolin/docex/internal/fields"
	"github.com/jackzampolin/docex/internal/prompts"
	"github.com/jackzampolin/docex/internal/prompts/extraction"
	"github.com/jackzampolin/docex/internal/providers"
)

// DefaultTextModel parses recognized text into fields.
const DefaultTextModel = "gpt-4o-mini"

// TextRecognizer produces the raw text of a document.
type TextRecognizer interface {
	Text(ctx context.Context, path string) (string, error)
}

// VisionExtractor produces raw text and fields from a document image.
type VisionExtractor interface {
	Extract(ctx context.Context, path string, specs []fields.FieldSpec) (string, map[string]any, error)
}

// Config holds the engine's collaborators.
type Config struct {
	Local     TextRecognizer
	Vision    VisionExtractor
	LLM       providers.LLMClient // Text-parsing model for MethodLocal
	TextModel string              // DefaultTextModel if empty
	Prompts   *prompts.Resolver   // Embedded prompts if nil
	Logger    *slog.Logger
}

// Engine runs extraction requests. It is safe for concurrent use.
type Engine struct {
	local     TextRecognizer
	vision    VisionExtractor
	llm       providers.LLMClient
	textModel string
	prompts   *prompts.Resolver
	logger    *slog.Logger
}

// Result is the outcome of one request.
type Result struct {
	RawText string        `json:"raw_text"`
	Fields  fields.Values `json:"fields"`
	Method  Method        `json:"method"`
	Elapsed time.Duration `json:"elapsed"`
}

// New creates an engine.
func New(cfg Config) *Engine {
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		local:     cfg.Local,
		vision:    cfg.Vision,
		llm:       cfg.LLM,
		textModel: cfg.TextModel,
		prompts:   cfg.Prompts,
		logger:    cfg.Logger,
	}
}

// Process extracts spec's fields from the file at filePath.
// The returned fields always carry exactly the keys of spec, in order;
// keys the model did not answer are null.
func (e *Engine) Process(ctx context.Context, method Method, filePath string, spec fields.Spec) (*Result, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, string(method))
	}

	start := time.Now()
	specs, keys := fields.Normalize(spec)

	logger := e.logger.With("method", method, "file", filepath.Base(filePath), "fields", len(keys))
	logger.Info("processing document")

	var (
		rawText string
		got     map[string]any
		err     error
	)
	switch method {
	case MethodLocal:
		rawText, got, err = e.processLocal(ctx, filePath, specs)
	case MethodVision:
		if e.vision == nil {
			return nil, fmt.Errorf("hosted vision is not configured")
		}
		rawText, got, err = e.vision.Extract(ctx, filePath, specs)
	}
	if err != nil {
		logger.Error("processing failed", "error", err, "error_type", ErrorType(err))
		return nil, err
	}

	result := &Result{
		RawText: rawText,
		Fields:  fields.Reconcile(keys, got),
		Method:  method,
		Elapsed: time.Since(start),
	}
	logger.Info("processing complete",
		"raw_text_len", len(rawText),
		"keys", result.Fields.Keys(),
		"duration", result.Elapsed,
	)
	return result, nil
}

// processLocal recognizes the whole document, then runs one text-parsing call.
func (e *Engine) processLocal(ctx context.Context, filePath string, specs []fields.FieldSpec) (string, map[string]any, error) {
	if e.local == nil || e.llm == nil {
		return "", nil, fmt.Errorf("local recognition is not configured")
	}

	rawText, err := e.local.Text(ctx, filePath)
	if err != nil {
		return "", nil, err
	}

	prompt, err := extraction.Build(e.prompts, extraction.TextPromptKey, extraction.Data{
		Fields: extraction.FieldBlock(specs),
		Text:   rawText,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to build text prompt: %w", err)
	}

	got, result, err := providers.CompleteJSON(ctx, e.llm, &providers.ChatRequest{
		Model:          e.textModel,
		Messages:       []providers.Message{providers.UserMessage(prompt)},
		Temperature:    providers.Temperature(0),
		ResponseFormat: &providers.ResponseFormat{Type: providers.ResponseFormatJSONObject},
	}, nil)
	if err != nil {
		return "", nil, err
	}

	e.logger.Debug("text parsing complete",
		"model", result.ModelUsed,
		"prompt_tokens", result.PromptTokens,
		"completion_tokens", result.CompletionTokens,
		"duration", result.ExecutionTime,
	)
	return rawText, got, nil
}
