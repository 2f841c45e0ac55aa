package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/fileutils"
)

// File is one candidate book file observed during a walk.
type File struct {
	// Root is the configured library root the file lives under.
	Root string
	// RelDir is the directory path relative to Root, "" at the root itself.
	RelDir   string
	Filename string
	Ext      string
	Size     int64
	// Fingerprint is size plus mtime; cheap to compute and enough to detect
	// a replaced file without hashing gigabytes on every pass.
	Fingerprint string
}

// AbsPath returns the full filesystem path of the file.
func (f File) AbsPath() string {
	return filepath.Join(f.Root, f.RelDir, f.Filename)
}

// VirtualPath returns the catalog path of the file's directory: the root's
// base name joined with the relative directory.
func (f File) VirtualPath() string {
	return fileutils.VirtualPath(f.Root, f.RelDir)
}

type Walker struct {
	roots []string
	exts  map[string]bool
}

func NewWalker(roots, extensions []string) *Walker {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &Walker{roots: roots, exts: exts}
}

type dirEntry struct {
	root string
	rel  string
}

// Walk visits every matching file under every root, depth-first with an
// explicit stack. Directory symlinks are not followed, so link cycles cannot
// recurse. Unreadable directories and files are reported through onError and
// the walk continues.
func (w *Walker) Walk(ctx context.Context, onFile func(File) error, onError func(path string, err error)) error {
	stack := make([]dirEntry, 0, len(w.roots))
	for i := len(w.roots) - 1; i >= 0; i-- {
		stack = append(stack, dirEntry{root: w.roots[i]})
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dirPath := filepath.Join(dir.root, dir.rel)

		entries, err := os.ReadDir(dirPath)
		if err != nil {
			onError(dirPath, err)
			continue
		}

		// Subdirectories are pushed in reverse so they pop in sorted order.
		for i := len(entries) - 1; i >= 0; i-- {
			entry := entries[i]
			if !entry.IsDir() {
				continue
			}
			stack = append(stack, dirEntry{root: dir.root, rel: filepath.Join(dir.rel, entry.Name())})
		}

		for _, entry := range entries {
			if entry.IsDir() || !entry.Type().IsRegular() {
				continue
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
			if !w.exts[ext] {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				onError(filepath.Join(dirPath, entry.Name()), err)
				continue
			}

			file := File{
				Root:        dir.root,
				RelDir:      dir.rel,
				Filename:    entry.Name(),
				Ext:         ext,
				Size:        info.Size(),
				Fingerprint: fileutils.Fingerprint(info),
			}
			if err := onFile(file); err != nil {
				return err
			}
		}
	}

	return nil
}
