// Package fileutils maps between catalog paths and filesystem paths. Catalog
// paths are virtual: the first segment is a library root's base name, the
// rest is the path under that root.
package fileutils

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// VirtualPath builds the catalog path for a directory under a root.
func VirtualPath(root, relDir string) string {
	return filepath.ToSlash(filepath.Join(filepath.Base(root), relDir))
}

// ResolveAbs maps a catalog path back to a filesystem path by matching its
// first segment against the configured roots' base names. When two roots
// share a base name the first match wins.
func ResolveAbs(roots []string, virtualPath string) (string, error) {
	head := virtualPath
	rest := ""
	if idx := strings.IndexByte(virtualPath, '/'); idx >= 0 {
		head = virtualPath[:idx]
		rest = virtualPath[idx+1:]
	}
	for _, root := range roots {
		if filepath.Base(root) == head {
			return filepath.Join(root, filepath.FromSlash(rest)), nil
		}
	}
	return "", errors.Errorf("no library root matches catalog path %q", virtualPath)
}

// Fingerprint derives the change-detection token for a file: size plus
// mtime. Cheap to compute and enough to notice a replaced file without
// hashing gigabytes on every pass.
func Fingerprint(info fs.FileInfo) string {
	return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().Unix())
}
