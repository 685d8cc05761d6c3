// Package tesseract provides the local text recognizer backed by Tesseract
// through gosseract. It requires cgo plus libtesseract and the traineddata
// files for every configured language.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/jackzampolin/docex/internal/recognize"
)

// DefaultLanguages are used when none are configured.
var DefaultLanguages = []string{"tur", "eng"}

// Engine is a single shared Tesseract handle.
// The client is created on first use and every call holds the mutex,
// so concurrent requests reuse the handle one at a time.
type Engine struct {
	languages []string
	logger    *slog.Logger

	once    sync.Once
	initErr error

	mu     sync.Mutex
	client *gosseract.Client
}

// New creates an engine for the given languages. Nothing is loaded until
// the first Recognize call.
func New(languages []string, logger *slog.Logger) *Engine {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{languages: languages, logger: logger}
}

// Languages returns the configured recognition languages.
func (e *Engine) Languages() []string {
	out := make([]string, len(e.languages))
	copy(out, e.languages)
	return out
}

// Recognize returns the non-empty text lines of the image in reading order.
func (e *Engine) Recognize(ctx context.Context, imagePath string) ([]string, error) {
	if err := e.init(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.client == nil {
		return nil, fmt.Errorf("tesseract engine is closed")
	}

	start := time.Now()
	if err := e.client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	lines := splitLines(text)
	e.logger.Debug("tesseract recognized image",
		"lines", len(lines),
		"duration", time.Since(start),
	)
	return lines, nil
}

// Close releases the Tesseract handle.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

func (e *Engine) init() error {
	e.once.Do(func() {
		start := time.Now()
		c := gosseract.NewClient()
		if err := c.SetLanguage(e.languages...); err != nil {
			c.Close()
			e.initErr = fmt.Errorf("set languages %v: %w", e.languages, err)
			return
		}
		e.mu.Lock()
		e.client = c
		e.mu.Unlock()
		e.logger.Info("tesseract engine initialized",
			"languages", strings.Join(e.languages, "+"),
			"version", gosseract.Version(),
			"duration", time.Since(start),
		)
	})
	return e.initErr
}

// splitLines returns the trimmed, non-empty lines of text.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

var _ recognize.Recognizer = (*Engine)(nil)
