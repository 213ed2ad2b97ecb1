// Package pages resolves page identifiers to page image bytes.
package pages

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
)

// Store returns the image bytes of a page. Implementations return an error
// matching pagex.ErrPageNotFound when the identifier has no image.
type Store interface {
	Get(ctx context.Context, id string) ([]byte, error)
}

// StoreFunc is a function type that implements the Store interface.
type StoreFunc func(context.Context, string) ([]byte, error)

// Get implements the Store interface for StoreFunc.
func (f StoreFunc) Get(ctx context.Context, id string) ([]byte, error) {
	return f(ctx, id)
}

// Dir serves page images from files under a root directory. Identifiers are
// slash-separated relative paths.
type Dir struct {
	root  string
	strip int
}

// DirOption configures a Dir.
type DirOption func(*Dir)

// WithStripSegments drops the first n path segments of an identifier before
// resolving it, for corpora whose identifiers carry their original folder
// name (for example "book_pages/page_12.jpg" stored directly under root).
func WithStripSegments(n int) DirOption {
	return func(d *Dir) {
		if n >= 0 {
			d.strip = n
		}
	}
}

// NewDir returns a Dir rooted at root.
func NewDir(root string, opts ...DirOption) *Dir {
	d := &Dir{root: root}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns the file an identifier resolves to. The boolean is false when
// the identifier is empty after stripping or would leave the root.
func (d *Dir) Path(id string) (string, bool) {
	segments := strings.Split(path.Clean("/"+id), "/")[1:]
	if d.strip >= len(segments) {
		return "", false
	}
	rel := path.Join(segments[d.strip:]...)
	if rel == "" || rel == "." {
		return "", false
	}
	return filepath.Join(d.root, filepath.FromSlash(rel)), true
}

// Get implements Store.
func (d *Dir) Get(ctx context.Context, id string) ([]byte, error) {
	p, ok := d.Path(id)
	if !ok {
		return nil, errors.Wrapf(pagex.ErrPageNotFound, "page %q does not map to a file", id)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(pagex.ErrPageNotFound, "page %q: no file at %s", id, p)
		}
		return nil, errors.Wrapf(err, "failed to read page %q", id)
	}
	return data, nil
}
