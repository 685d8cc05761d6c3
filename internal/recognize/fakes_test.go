package recognize

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackzampolin/docex/internal/raster"
)

type fakeRasterizer struct {
	pages int
	err   error

	mu    sync.Mutex
	calls []rasterCall
}

type rasterCall struct {
	path string
	dpi  int
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]raster.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rasterCall{path: pdfPath, dpi: dpi})
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	pages := make([]raster.Page, f.pages)
	for i := range pages {
		pages[i] = raster.Page{Number: i + 1, PNG: []byte(fmt.Sprintf("page-%d", i+1))}
	}
	return pages, nil
}

// fakeRecognizer returns the file's content as a fragment pair and records
// whether each path existed when it was recognized.
type fakeRecognizer struct {
	failOn int // 1-based call number to fail on; 0 never

	mu      sync.Mutex
	paths   []string
	existed []bool
}

func (f *fakeRecognizer) Recognize(ctx context.Context, imagePath string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(imagePath)
	f.paths = append(f.paths, imagePath)
	f.existed = append(f.existed, err == nil)

	if f.failOn > 0 && len(f.paths) == f.failOn {
		return nil, fmt.Errorf("engine crashed")
	}
	if err != nil {
		return nil, err
	}
	return []string{string(data), "ok"}, nil
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("temp files left behind: %v", names)
	}
}
