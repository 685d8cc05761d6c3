package recognize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalText_PDF(t *testing.T) {
	tmp := t.TempDir()
	rast := &fakeRasterizer{pages: 3}
	rec := &fakeRecognizer{}
	l := &Local{Rasterizer: rast, Recognizer: rec, TempDir: tmp}

	got, err := l.Text(context.Background(), "/docs/Scan.PDF")
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}

	want := "page-1 ok page-2 ok page-3 ok"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}

	if len(rast.calls) != 1 {
		t.Fatalf("rasterize called %d times, want 1", len(rast.calls))
	}
	if rast.calls[0].dpi != 300 || rast.calls[0].path != "/docs/Scan.PDF" {
		t.Errorf("unexpected rasterize call: %+v", rast.calls[0])
	}

	if len(rec.paths) != 3 {
		t.Fatalf("recognize called %d times, want 3", len(rec.paths))
	}
	for i, existed := range rec.existed {
		if !existed {
			t.Errorf("page %d image did not exist when recognized", i+1)
		}
		if filepath.Dir(rec.paths[i]) != tmp {
			t.Errorf("page image %q not under temp dir", rec.paths[i])
		}
	}
	assertEmptyDir(t, tmp)
}

func TestLocalText_Image(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "receipt.png")
	if err := os.WriteFile(img, []byte("TOTAL 10.00"), 0o644); err != nil {
		t.Fatal(err)
	}

	rast := &fakeRasterizer{pages: 1}
	rec := &fakeRecognizer{}
	l := &Local{Rasterizer: rast, Recognizer: rec, TempDir: t.TempDir()}

	got, err := l.Text(context.Background(), img)
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "TOTAL 10.00 ok" {
		t.Errorf("Text() = %q", got)
	}
	if len(rast.calls) != 0 {
		t.Error("images must not be rasterized")
	}
	if len(rec.paths) != 1 || rec.paths[0] != img {
		t.Errorf("recognized %v, want the file itself", rec.paths)
	}
}

func TestLocalText_Errors(t *testing.T) {
	t.Run("rasterize failure", func(t *testing.T) {
		tmp := t.TempDir()
		l := &Local{
			Rasterizer: &fakeRasterizer{err: errors.New("corrupt pdf")},
			Recognizer: &fakeRecognizer{},
			TempDir:    tmp,
		}
		_, err := l.Text(context.Background(), "a.pdf")
		if !errors.Is(err, ErrRasterize) {
			t.Errorf("err = %v, want ErrRasterize", err)
		}
		assertEmptyDir(t, tmp)
	})

	t.Run("recognition failure mid-document cleans up", func(t *testing.T) {
		tmp := t.TempDir()
		rec := &fakeRecognizer{failOn: 2}
		l := &Local{
			Rasterizer: &fakeRasterizer{pages: 3},
			Recognizer: rec,
			TempDir:    tmp,
		}
		_, err := l.Text(context.Background(), "a.pdf")
		if !errors.Is(err, ErrRecognition) {
			t.Errorf("err = %v, want ErrRecognition", err)
		}
		if len(rec.paths) != 2 {
			t.Errorf("recognize called %d times, want 2", len(rec.paths))
		}
		assertEmptyDir(t, tmp)
	})

	t.Run("image recognition failure", func(t *testing.T) {
		l := &Local{
			Rasterizer: &fakeRasterizer{},
			Recognizer: &fakeRecognizer{failOn: 1},
		}
		_, err := l.Text(context.Background(), filepath.Join(t.TempDir(), "x.jpg"))
		if !errors.Is(err, ErrRecognition) {
			t.Errorf("err = %v, want ErrRecognition", err)
		}
	})
}
