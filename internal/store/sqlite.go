package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS files (
		id           TEXT PRIMARY KEY,
		filename     TEXT NOT NULL,
		path         TEXT NOT NULL,
		size         INTEGER NOT NULL,
		sha256       TEXT NOT NULL,
		content_type TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS files_sha256 ON files (sha256)`,
}

// createdAtLayout is fixed-width so created_at sorts as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteIndex persists the index in a SQLite database so uploads survive
// restarts.
type SQLiteIndex struct {
	db *sql.DB
}

// OpenSQLiteIndex opens or creates the database at path.
func OpenSQLiteIndex(ctx context.Context, path string) (*SQLiteIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create index schema: %w", err)
		}
	}
	return &SQLiteIndex{db: db}, nil
}

func (s *SQLiteIndex) Insert(ctx context.Context, f *File) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, filename, path, size, sha256, content_type, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Filename, f.Path, f.Size, f.SHA256, f.ContentType, f.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("insert file %s: %w", f.ID, err)
	}
	return nil
}

func (s *SQLiteIndex) Get(ctx context.Context, id string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	return scanFile(row)
}

func (s *SQLiteIndex) GetBySHA256(ctx context.Context, sum string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE sha256 = ? ORDER BY created_at LIMIT 1`, sum)
	return scanFile(row)
}

func (s *SQLiteIndex) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteIndex) List(ctx context.Context) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

const fileColumns = `id, filename, path, size, sha256, content_type, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*File, error) {
	var (
		f         File
		createdAt string
	)
	if err := row.Scan(&f.ID, &f.Filename, &f.Path, &f.Size, &f.SHA256, &f.ContentType, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}
	t, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	f.CreatedAt = t
	return &f, nil
}

var _ Index = (*SQLiteIndex)(nil)
