package recognize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackzampolin/docex/internal/raster"
)

// Local recognizes text with an on-host recognizer.
type Local struct {
	Rasterizer raster.Rasterizer
	Recognizer Recognizer
	TempDir    string // Parent dir for page images; os.TempDir() if empty
	DPI        int    // PDF render resolution; raster.DefaultDPI if zero
	Logger     *slog.Logger
}

// Text returns all recognized fragments of the file joined by single spaces.
// PDFs are rendered once, then each page is recognized in order.
func (l *Local) Text(ctx context.Context, path string) (string, error) {
	start := time.Now()

	var fragments []string
	if raster.IsPDF(path) {
		pages, err := l.Rasterizer.Rasterize(ctx, path, l.dpi())
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRasterize, err)
		}
		for _, page := range pages {
			frags, err := l.recognizePage(ctx, page)
			if err != nil {
				return "", err
			}
			fragments = append(fragments, frags...)
		}
		l.logger().Debug("recognized PDF",
			"file", filepath.Base(path),
			"pages", len(pages),
			"fragments", len(fragments),
			"duration", time.Since(start),
		)
	} else {
		frags, err := l.Recognizer.Recognize(ctx, path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRecognition, err)
		}
		fragments = frags
		l.logger().Debug("recognized image",
			"file", filepath.Base(path),
			"fragments", len(fragments),
			"duration", time.Since(start),
		)
	}

	return strings.Join(fragments, " "), nil
}

// recognizePage writes one page to a temp image, recognizes it and removes it.
func (l *Local) recognizePage(ctx context.Context, page raster.Page) ([]string, error) {
	path, err := writeTemp(l.TempDir, fmt.Sprintf("docex-page-%04d-*.png", page.Number), page.PNG)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRasterize, err)
	}
	defer os.Remove(path)

	frags, err := l.Recognizer.Recognize(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", ErrRecognition, page.Number, err)
	}
	return frags, nil
}

func (l *Local) dpi() int {
	if l.DPI > 0 {
		return l.DPI
	}
	return raster.DefaultDPI
}

func (l *Local) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
