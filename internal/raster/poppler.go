package raster

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Poppler renders PDFs with pdftoppm.
// It renders the page content itself, unlike pdfcpu image extraction which
// returns embedded image objects whose numbering may not match page order.
type Poppler struct {
	Binary  string       // Defaults to "pdftoppm"
	TempDir string       // Parent for scratch dirs; os.TempDir() if empty
	Runner  Runner       // Defaults to ExecRunner
	Logger  *slog.Logger // Defaults to slog.Default()
}

// NewPoppler creates a pdftoppm rasterizer with defaults.
func NewPoppler(tempDir string, logger *slog.Logger) *Poppler {
	return &Poppler{TempDir: tempDir, Logger: logger}
}

// Rasterize renders all pages of pdfPath at dpi with one pdftoppm run.
// The scratch directory is removed before returning.
func (p *Poppler) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]Page, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if dpi <= 0 {
		dpi = DefaultDPI
	}
	start := time.Now()

	pageCount, err := CountPages(pdfPath)
	if err != nil {
		return nil, err
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("PDF has no pages: %s", pdfPath)
	}

	tmpDir, err := os.MkdirTemp(p.TempDir, "docex-raster-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// -png: output PNG format
	// -r N: resolution in DPI
	// Output files are <prefix>-<page>.png, zero-padded to the page count width.
	outputPrefix := filepath.Join(tmpDir, "page")
	output, err := p.runner().Run(ctx, p.binary(),
		"-png",
		"-r", strconv.Itoa(dpi),
		pdfPath,
		outputPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}

	pages, err := readPages(tmpDir, "page")
	if err != nil {
		return nil, err
	}
	if len(pages) != pageCount {
		return nil, fmt.Errorf("pdftoppm rendered %d pages, expected %d", len(pages), pageCount)
	}

	p.logger().Debug("rasterized PDF",
		"file", filepath.Base(pdfPath),
		"pages", len(pages),
		"dpi", dpi,
		"duration", time.Since(start),
	)
	return pages, nil
}

// CountPages returns the page count of a PDF using relaxed validation.
func CountPages(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(f, conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}

// readPages loads <prefix>-<n>.png files from dir ordered by page number.
func readPages(dir, prefix string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read render output: %w", err)
	}

	var pages []Page
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".png") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), ".png"))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %d: %w", num, err)
		}
		pages = append(pages, Page{Number: num, PNG: data})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

func (p *Poppler) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "pdftoppm"
}

func (p *Poppler) runner() Runner {
	if p.Runner != nil {
		return p.Runner
	}
	return ExecRunner{}
}

func (p *Poppler) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

var _ Rasterizer = (*Poppler)(nil)
