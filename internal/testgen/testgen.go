// Package testgen provides utilities for generating test book files (FB2,
// EPUB, MOBI) with configurable metadata for testing the scan worker.
package testgen

import (
	"os"
	"path/filepath"
	"testing"
)

// FB2Options configures the generated FB2 file.
type FB2Options struct {
	Title        string
	Authors      []string // full display names, e.g. "Лев Толстой"
	Series       string
	SeriesNumber *int
	Genres       []string // FB2 genre codes, e.g. "sf", "det_classic"
	Annotation   string
	Date         string
	Lang         string
	HasCover     bool
}

// EPUBOptions configures the generated EPUB file.
type EPUBOptions struct {
	Title         string
	Authors       []string
	Series        string
	SeriesNumber  *int
	Subjects      []string
	Language      string
	HasCover      bool
	CoverMimeType string // "image/jpeg" or "image/png", defaults to "image/png"
}

// MOBIOptions configures the generated MOBI file.
type MOBIOptions struct {
	Title    string
	Author   string
	HasCover bool
}

// CreateSubDir creates a subdirectory within the given parent directory.
// Returns the full path to the created subdirectory.
func CreateSubDir(t *testing.T, parent, name string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create subdirectory %s: %v", dir, err)
	}
	return dir
}

// WriteFile creates a file with the given content in the specified directory.
// Returns the full path to the created file.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}
