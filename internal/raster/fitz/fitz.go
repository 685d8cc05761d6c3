// Package fitz renders PDF pages in-process with MuPDF via go-fitz.
// It requires cgo and the MuPDF libraries bundled by go-fitz.
package fitz

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	gofitz "github.com/gen2brain/go-fitz"

	"github.com/jackzampolin/docex/internal/raster"
)

// Rasterizer implements raster.Rasterizer without external binaries.
type Rasterizer struct {
	Logger *slog.Logger
}

// New creates a MuPDF-backed rasterizer.
func New(logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rasterizer{Logger: logger}
}

// Rasterize renders every page of pdfPath at dpi.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]raster.Page, error) {
	if dpi <= 0 {
		dpi = raster.DefaultDPI
	}
	start := time.Now()

	doc, err := gofitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("PDF has no pages: %s", pdfPath)
	}

	pages := make([]raster.Page, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		png, err := doc.ImagePNG(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		pages = append(pages, raster.Page{Number: i + 1, PNG: png})
	}

	if r.Logger != nil {
		r.Logger.Debug("rasterized PDF",
			"file", filepath.Base(pdfPath),
			"pages", n,
			"dpi", dpi,
			"duration", time.Since(start),
		)
	}
	return pages, nil
}

var _ raster.Rasterizer = (*Rasterizer)(nil)
