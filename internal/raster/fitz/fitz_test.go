package fitz

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeBlankPDF(t *testing.T, pages int) string {
	t.Helper()

	objs := []string{"<< /Type /Catalog /Pages 2 0 R >>"}
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << >> >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	path := filepath.Join(t.TempDir(), "blank.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestRasterize(t *testing.T) {
	path := writeBlankPDF(t, 2)

	pages, err := New(nil).Rasterize(context.Background(), path, 72)
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	pngMagic := []byte("\x89PNG\r\n\x1a\n")
	for i, p := range pages {
		if p.Number != i+1 {
			t.Errorf("pages[%d].Number = %d", i, p.Number)
		}
		if !bytes.HasPrefix(p.PNG, pngMagic) {
			t.Errorf("pages[%d] is not a PNG", i)
		}
	}
}

func TestRasterize_MissingFile(t *testing.T) {
	_, err := New(nil).Rasterize(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), 72)
	if err == nil {
		t.Error("expected error for missing file")
	}
}
