// Package raster renders PDF documents into per-page PNG images.
//
// Two implementations exist: Poppler shells out to pdftoppm (poppler-utils)
// and is the default; the fitz subpackage renders in-process through MuPDF.
package raster

import (
	"context"
	"path/filepath"
	"strings"
)

// DefaultDPI is the resolution used for recognition-quality renders.
const DefaultDPI = 300

// Page is one rendered page. Number is 1-based.
type Page struct {
	Number int
	PNG    []byte
}

// Rasterizer renders every page of a PDF, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, dpi int) ([]Page, error)
}

// IsPDF reports whether path names a PDF by extension (case-insensitive).
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
