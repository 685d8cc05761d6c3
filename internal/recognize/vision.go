package recognize

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackzampolin/docex/internal/fields"
	"github.com/jackzampolin/docex/internal/prompts"
	"github.com/jackzampolin/docex/internal/prompts/extraction"
	"github.com/jackzampolin/docex/internal/providers"
	"github.com/jackzampolin/docex/internal/raster"
)

const (
	DefaultVisionModel     = "gpt-4o"
	DefaultVisionMaxTokens = 4096

	fallbackMIME = "image/jpeg"
)

// visionReplySchema is the two-key reply contract of the vision prompt.
var visionReplySchema = providers.MustCompileSchema("vision_reply.json", []byte(`{
	"type": "object",
	"properties": {
		"raw_text": {"type": ["string", "null"]},
		"fields": {"type": ["object", "null"]}
	}
}`))

// Vision extracts text and fields in one call to a multimodal model.
// Only the first page of a PDF is sent.
type Vision struct {
	Rasterizer raster.Rasterizer
	LLM        providers.LLMClient
	Model      string            // DefaultVisionModel if empty
	MaxTokens  int               // DefaultVisionMaxTokens if zero
	Detail     string            // providers.ImageDetailHigh if empty
	TempDir    string            // Parent dir for the page image
	DPI        int               // raster.DefaultDPI if zero
	Prompts    *prompts.Resolver // Embedded prompt if nil
	Logger     *slog.Logger
}

// Extract returns the model's transcription and its field mapping.
// Missing or null keys in the reply yield "" and an empty mapping.
func (v *Vision) Extract(ctx context.Context, path string, specs []fields.FieldSpec) (string, map[string]any, error) {
	start := time.Now()

	imagePath, mimeType := path, mimeFor(path)
	if raster.IsPDF(path) {
		pagePath, err := v.firstPage(ctx, path)
		if err != nil {
			return "", nil, err
		}
		defer os.Remove(pagePath)
		imagePath, mimeType = pagePath, "image/png"
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read image: %w", err)
	}

	prompt, err := extraction.Build(v.Prompts, extraction.VisionPromptKey, extraction.Data{
		Fields: extraction.FieldBlock(specs),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to build vision prompt: %w", err)
	}

	req := &providers.ChatRequest{
		Model: v.model(),
		Messages: []providers.Message{
			providers.UserMessage(prompt, providers.ImageURL{
				URL:    DataURI(mimeType, data),
				Detail: v.detail(),
			}),
		},
		Temperature:    providers.Temperature(0),
		MaxTokens:      v.maxTokens(),
		ResponseFormat: &providers.ResponseFormat{Type: providers.ResponseFormatJSONObject},
	}

	reply, result, err := providers.CompleteJSON(ctx, v.LLM, req, visionReplySchema)
	if err != nil {
		return "", nil, err
	}

	rawText, _ := reply["raw_text"].(string)
	got, _ := reply["fields"].(map[string]any)
	if got == nil {
		got = map[string]any{}
	}

	v.logger().Debug("vision extraction complete",
		"file", filepath.Base(path),
		"model", result.ModelUsed,
		"prompt_tokens", result.PromptTokens,
		"completion_tokens", result.CompletionTokens,
		"duration", time.Since(start),
	)
	return rawText, got, nil
}

// firstPage renders the PDF and writes page one to a temp PNG.
func (v *Vision) firstPage(ctx context.Context, path string) (string, error) {
	dpi := v.DPI
	if dpi <= 0 {
		dpi = raster.DefaultDPI
	}
	pages, err := v.Rasterizer.Rasterize(ctx, path, dpi)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRasterize, err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: PDF rendered no pages", ErrRasterize)
	}

	pagePath, err := writeTemp(v.TempDir, "docex-vision-*.png", pages[0].PNG)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRasterize, err)
	}
	return pagePath, nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// mimeFor guesses an image MIME type from the extension, defaulting to JPEG.
func mimeFor(path string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if t == "" {
		return fallbackMIME
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

func (v *Vision) model() string {
	if v.Model != "" {
		return v.Model
	}
	return DefaultVisionModel
}

func (v *Vision) maxTokens() int {
	if v.MaxTokens > 0 {
		return v.MaxTokens
	}
	return DefaultVisionMaxTokens
}

func (v *Vision) detail() string {
	if v.Detail != "" {
		return v.Detail
	}
	return providers.ImageDetailHigh
}

func (v *Vision) logger() *slog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return slog.Default()
}
