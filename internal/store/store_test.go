package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newStores(t *testing.T) map[string]*Store {
	t.Helper()
	ctx := context.Background()

	mem, err := New(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New(memory) error = %v", err)
	}

	idx, err := OpenSQLiteIndex(ctx, filepath.Join(t.TempDir(), "index", "files.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteIndex() error = %v", err)
	}
	sq, err := New(Config{Dir: t.TempDir(), Index: idx})
	if err != nil {
		t.Fatalf("New(sqlite) error = %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]*Store{"memory": mem, "sqlite": sq}
}

func TestStore_PutGet(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			content := "%PDF-1.4 fake invoice"

			f, err := s.Put(ctx, "invoice.pdf", strings.NewReader(content))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if f.ID == "" || f.Filename != "invoice.pdf" || f.Size != int64(len(content)) {
				t.Errorf("unexpected file: %+v", f)
			}
			if want := filepath.Join(s.Dir(), f.ID+"_invoice.pdf"); f.Path != want {
				t.Errorf("Path = %q, want %q", f.Path, want)
			}
			if len(f.SHA256) != 64 {
				t.Errorf("SHA256 = %q", f.SHA256)
			}
			if f.ContentType != "application/pdf" {
				t.Errorf("ContentType = %q", f.ContentType)
			}

			data, err := os.ReadFile(f.Path)
			if err != nil || string(data) != content {
				t.Errorf("stored content = %q, %v", data, err)
			}

			got, err := s.Get(ctx, f.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.ID != f.ID || got.Path != f.Path || got.SHA256 != f.SHA256 {
				t.Errorf("Get() = %+v, want %+v", got, f)
			}
			if !got.CreatedAt.Equal(f.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, f.CreatedAt)
			}

			// No temp upload files remain.
			entries, _ := os.ReadDir(s.Dir())
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), ".upload-") {
					t.Errorf("leftover temp file %s", e.Name())
				}
			}
		})
	}
}

func TestStore_Dedup(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a, err := s.Put(ctx, "a.png", strings.NewReader("same bytes"))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			b, err := s.Put(ctx, "b.png", strings.NewReader("same bytes"))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if a.ID != b.ID {
				t.Errorf("identical content got different ids: %s, %s", a.ID, b.ID)
			}

			c, err := s.Put(ctx, "a.png", strings.NewReader("other bytes"))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if c.ID == a.ID {
				t.Error("different content shared an id")
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 2 || list[0].ID != a.ID || list[1].ID != c.ID {
				t.Errorf("List() = %+v", list)
			}
		})
	}
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()
	s, err := New(Config{Dir: t.TempDir(), MaxBytes: 8})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		filename string
		content  string
		wantErr  error
	}{
		{"unsupported extension", "notes.txt", "hi", ErrUnsupportedType},
		{"no extension", "README", "hi", ErrUnsupportedType},
		{"empty name", "", "hi", ErrUnsupportedType},
		{"too large", "big.png", "123456789", ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Put(ctx, tt.filename, strings.NewReader(tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("exactly at limit", func(t *testing.T) {
		if _, err := s.Put(ctx, "ok.PNG", strings.NewReader("12345678")); err != nil {
			t.Errorf("Put() error = %v", err)
		}
	})

	t.Run("path components stripped", func(t *testing.T) {
		f, err := s.Put(ctx, "../../etc/evil.jpg", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if f.Filename != "evil.jpg" || filepath.Dir(f.Path) != s.Dir() {
			t.Errorf("unexpected file: %+v", f)
		}
	})

	entries, _ := os.ReadDir(s.Dir())
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".upload-") {
			t.Errorf("rejected upload left %s behind", e.Name())
		}
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}

			f, err := s.Put(ctx, "gone.jpg", strings.NewReader("bytes"))
			if err != nil {
				t.Fatal(err)
			}
			os.Remove(f.Path)

			_, err = s.Get(ctx, f.ID)
			if !errors.Is(err, ErrNotFound) || !errors.Is(err, ErrMissingOnDisk) {
				t.Errorf("vanished file: err = %v, want ErrMissingOnDisk", err)
			}

			// Re-uploading the same bytes replaces the stale record.
			again, err := s.Put(ctx, "gone.jpg", strings.NewReader("bytes"))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if again.ID == f.ID {
				t.Error("stale record was reused")
			}
			if _, err := s.Get(ctx, again.ID); err != nil {
				t.Errorf("Get() error = %v", err)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f, err := s.Put(ctx, "x.webp", strings.NewReader("data"))
			if err != nil {
				t.Fatal(err)
			}

			if err := s.Delete(ctx, f.ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := os.Stat(f.Path); !os.IsNotExist(err) {
				t.Error("file still on disk")
			}
			if _, err := s.Get(ctx, f.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, f.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete() = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_ConcurrentDedup(t *testing.T) {
	s, err := New(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	ids := make([]string, 10)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := s.Put(context.Background(), "same.png", strings.NewReader("identical"))
			if err != nil {
				t.Errorf("Put() error = %v", err)
				return
			}
			ids[i] = f.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent identical uploads produced ids %v", ids)
		}
	}
}

func TestSQLiteIndex_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "files.db")

	idx, err := OpenSQLiteIndex(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := New(Config{Dir: filepath.Join(dir, "uploads"), Index: idx})
	f, err := s.Put(ctx, "keep.pdf", strings.NewReader("persist me"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	idx, err = OpenSQLiteIndex(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	s, _ = New(Config{Dir: filepath.Join(dir, "uploads"), Index: idx})
	defer s.Close()

	got, err := s.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Filename != "keep.pdf" {
		t.Errorf("Filename = %q", got.Filename)
	}
}
