// Package source lists and reads repository files for a scan.
//
// A Source never interprets content: it hands back the tree listing and the
// raw text of individual files. Failures reading a single file are reported as
// errors so callers can count them, but callers treat them as empty content.
package source

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/mvp-joe/schemagraph/internal/selector"
)

// ErrNotFound is returned when a path does not exist in the source.
var ErrNotFound = errors.New("file not found")

// Source supplies a repository tree and file contents.
type Source interface {
	// Tree returns every file and directory of the repository.
	Tree(ctx context.Context) ([]selector.TreeEntry, error)

	// Content returns the UTF-8 text of the file at path. Binary or
	// undecodable content is returned as "".
	Content(ctx context.Context, path string) (string, error)
}

// text converts raw bytes to a string, mapping invalid UTF-8 to "".
func text(b []byte) string {
	if !utf8.Valid(b) {
		return ""
	}
	return string(b)
}
