// Package mediafile defines the metadata shape shared by all format
// extractors, plus the typed extraction errors the scanner uses to decide
// between skipping a file and surfacing a scan error.
package mediafile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ParsedMetadata is what an extractor pulls out of a single book file. Fields
// an extractor cannot provide are left zero; the scanner falls back to the
// filename stem for the title.
type ParsedMetadata struct {
	Title         string
	Authors       []string
	Series        string
	SeriesNumber  *int
	Genres        []string
	Annotation    string
	DocDate       string
	Lang          string
	CoverMimeType string
	CoverData     []byte
}

func (m *ParsedMetadata) String() string {
	return fmt.Sprintf("Title:           %s\nAuthor(s):       %s\nHas Cover Data:  %v\nCover Mime Type: %s", m.Title, strings.Join(m.Authors, ", "), len(m.CoverData) > 0, m.CoverMimeType)
}

func (m *ParsedMetadata) CoverExtension() string {
	ext := ""
	switch m.CoverMimeType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	}
	return ext
}

// FallbackTitle derives a title from a filename when the file's own metadata
// has none.
func FallbackTitle(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.Join(strings.FieldsFunc(stem, func(r rune) bool {
		return r == '_'
	}), " ")
}
