package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File reads assets from a directory on disk.
type File struct {
	root string
}

// NewFile returns a File source rooted at root ("." when empty).
func NewFile(root string) *File {
	if root == "" {
		root = "."
	}
	return &File{root: root}
}

// Root returns the directory the source reads from.
func (f *File) Root() string { return f.root }

// Path maps an asset name to its location on disk.
func (f *File) Path(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty asset name")
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid absolute asset name %q", name)
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("asset name %q escapes source root", name)
	}
	return filepath.Join(f.root, clean), nil
}

// Open implements Source. Fetch options have no meaning for local files.
func (f *File) Open(ctx context.Context, name string, _ FetchOptions) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := f.Path(name)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	return fh, nil
}
