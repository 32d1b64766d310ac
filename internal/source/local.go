package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/schemagraph/internal/selector"
)

// skippedDirs are never descended into when walking a local tree.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Local reads a repository checked out on disk.
type Local struct {
	root string
}

// NewLocal creates a source rooted at dir.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute directory the source reads from.
func (l *Local) Root() string {
	return l.root
}

// Tree walks the directory in lexical order. Paths are relative and use "/".
func (l *Local) Tree(ctx context.Context) ([]selector.TreeEntry, error) {
	var entries []selector.TreeEntry

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == l.root {
			return nil
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			entries = append(entries, selector.TreeEntry{Path: rel, Type: selector.EntryDir})
			return nil
		}
		if d.Type().IsRegular() {
			entries = append(entries, selector.TreeEntry{Path: rel, Type: selector.EntryFile})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", l.root, err)
	}
	return entries, nil
}

// Content reads the file at the relative path.
func (l *Local) Content(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(l.root, filepath.FromSlash(path))
	if rel, err := filepath.Rel(l.root, full); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s escapes %s", path, l.root)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return text(data), nil
}
