// Package home locates the dcpr home directory and the files kept in it.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the dcpr home directory.
	DefaultDirName = ".dcpr"

	// DataDirName is the subdirectory for the corpus database.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// DBFileName is the corpus database file name.
	DBFileName = "corpus.db"
)

// Dir represents the dcpr home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.dcpr).
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

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DBPath returns the default corpus database path.
func (d *Dir) DBPath() string {
	return filepath.Join(d.DataPath(), DBFileName)
}

// PromptsDir returns the directory searched for prompt overrides.
func (d *Dir) PromptsDir() string {
	return filepath.Join(d.path, "prompts")
}

// RunsDir returns the directory for per-run outputs.
func (d *Dir) RunsDir() string {
	return filepath.Join(d.path, "runs")
}

// RunDir returns the output directory for one extraction run.
func (d *Dir) RunDir(runID string) string {
	return filepath.Join(d.RunsDir(), runID)
}

// EnsureRunDir creates the output directory for a run.
func (d *Dir) EnsureRunDir(runID string) error {
	return os.MkdirAll(d.RunDir(runID), 0o755)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
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
