// Package home locates the docex home directory and the paths under it.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the docex home directory.
	DefaultDirName = ".docex"

	// StorageDirName is the subdirectory for uploaded documents.
	StorageDirName = "storage"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// IndexFileName is the SQLite upload index under the storage dir.
	IndexFileName = "files.db"
)

// Dir represents the docex home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.docex).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// StoragePath returns the directory uploads are written to.
func (d *Dir) StoragePath() string {
	return filepath.Join(d.path, StorageDirName)
}

// IndexPath returns the path of the SQLite upload index.
func (d *Dir) IndexPath() string {
	return filepath.Join(d.StoragePath(), IndexFileName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// TempPath returns the scratch directory for rasterized pages.
func (d *Dir) TempPath() string {
	return filepath.Join(d.path, "tmp")
}

// ExportsDir returns the directory for exported spreadsheets.
func (d *Dir) ExportsDir() string {
	return filepath.Join(d.path, "exports")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.StoragePath(), d.TempPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
