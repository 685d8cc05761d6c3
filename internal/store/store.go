// Package store keeps uploaded documents on disk and indexes them by id.
//
// Files are written under the storage directory as <id>_<filename>.
// Uploads are content-addressed: re-uploading identical bytes returns the
// existing record instead of a new copy.
package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("file not found")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")

	// ErrMissingOnDisk is returned by Get when the index knows the id but
	// the file is gone. It matches ErrNotFound.
	ErrMissingOnDisk = fmt.Errorf("%w: no longer exists on disk", ErrNotFound)
)

// DefaultMaxBytes is the default upload size limit.
const DefaultMaxBytes int64 = 10 << 20

// DefaultExtensions are the accepted upload extensions.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp", ".pdf"}

// File is a stored document.
type File struct {
	ID          string    `json:"file_id"`
	Filename    string    `json:"filename"`
	Path        string    `json:"-"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Config configures a Store.
type Config struct {
	Dir        string
	Index      Index    // NewMemoryIndex() if nil
	MaxBytes   int64    // DefaultMaxBytes if zero
	Extensions []string // DefaultExtensions if empty
	Logger     *slog.Logger
}

// Store saves uploads and resolves ids to paths.
type Store struct {
	dir      string
	index    Index
	maxBytes int64
	allowed  map[string]bool
	logger   *slog.Logger

	mu sync.Mutex // serializes dedup check and insert
}

// New creates the storage directory if needed and returns a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	if cfg.Index == nil {
		cfg.Index = NewMemoryIndex()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	allowed := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		allowed[normalizeExt(ext)] = true
	}

	return &Store{
		dir:      cfg.Dir,
		index:    cfg.Index,
		maxBytes: cfg.MaxBytes,
		allowed:  allowed,
		logger:   cfg.Logger,
	}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes returns the upload size limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Allowed reports whether filename has an accepted extension.
func (s *Store) Allowed(filename string) bool {
	return s.allowed[normalizeExt(filepath.Ext(filename))]
}

// Extensions returns the accepted extensions, sorted.
func (s *Store) Extensions() []string {
	out := make([]string, 0, len(s.allowed))
	for ext := range s.allowed {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Put validates and stores r under filename.
// Identical content already stored returns the existing record.
func (s *Store) Put(ctx context.Context, filename string, r io.Reader) (*File, error) {
	name := cleanFilename(filename)
	if name == "" {
		return nil, fmt.Errorf("%w: missing filename", ErrUnsupportedType)
	}
	if !s.Allowed(name) {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedType, filepath.Ext(name), strings.Join(s.Extensions(), ", "))
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	var head bytes.Buffer
	sniff := &prefixWriter{buf: &head, limit: 512}
	n, err := io.Copy(tmp, io.TeeReader(io.LimitReader(r, s.maxBytes+1), io.MultiWriter(h, sniff)))
	closeErr := tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to save file: %w", closeErr)
	}
	if n > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
	}

	sum := hex.EncodeToString(h.Sum(nil))

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.index.GetBySHA256(ctx, sum); err == nil {
		if _, statErr := os.Stat(existing.Path); statErr == nil {
			s.logger.Info("upload deduplicated", "file_id", existing.ID, "sha256", sum)
			return existing, nil
		}
		// Stale record: the bytes vanished from disk. Replace it.
		if err := s.index.Delete(ctx, existing.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	id := uuid.New().String()
	f := &File{
		ID:          id,
		Filename:    name,
		Path:        filepath.Join(s.dir, id+"_"+name),
		Size:        n,
		SHA256:      sum,
		ContentType: http.DetectContentType(head.Bytes()),
		CreatedAt:   time.Now().UTC(),
	}

	if err := os.Rename(tmpPath, f.Path); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	committed = true

	if err := s.index.Insert(ctx, f); err != nil {
		os.Remove(f.Path)
		return nil, fmt.Errorf("failed to index file: %w", err)
	}

	s.logger.Info("file uploaded", "file_id", id, "filename", name, "size", n)
	return f, nil
}

// Get returns the record for id. A record whose file vanished from disk
// is reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*File, error) {
	f, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(f.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingOnDisk, id)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return f, nil
}

// Delete removes the record and its file.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.index.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	if err := s.index.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("file deleted", "file_id", id)
	return nil
}

// List returns all records, oldest first.
func (s *Store) List(ctx context.Context) ([]*File, error) {
	return s.index.List(ctx)
}

// Close releases the index.
func (s *Store) Close() error {
	return s.index.Close()
}

// cleanFilename strips directory components from an uploaded name.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// prefixWriter keeps the first limit bytes written to it.
type prefixWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *prefixWriter) Write(p []byte) (int, error) {
	if room := w.limit - w.buf.Len(); room > 0 {
		if len(p) < room {
			room = len(p)
		}
		w.buf.Write(p[:room])
	}
	return len(p), nil
}
