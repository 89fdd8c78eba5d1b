package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// URLPrefix is where the router serves the local upload directory.
const URLPrefix = "/uploads/"

// Local writes files under a directory on disk. Refs look like
// "/uploads/<kind>/<name>".
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) (*Local, error) {
	if baseDir == "" {
		baseDir = "uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating upload directory: %w", err)
	}
	return &Local{baseDir: baseDir}, nil
}

// Dir is the root directory, for mounting a file server.
func (l *Local) Dir() string {
	return l.baseDir
}

func (l *Local) Put(_ context.Context, kind Kind, name, _ string, r io.Reader) (string, error) {
	dir := filepath.Join(l.baseDir, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, filepath.Base(name)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}

	return URLPrefix + string(kind) + "/" + filepath.Base(name), nil
}

// Delete removes the file behind ref. A missing file is not an error.
func (l *Local) Delete(_ context.Context, ref string) error {
	rel, ok := strings.CutPrefix(ref, URLPrefix)
	if !ok {
		return fmt.Errorf("storage: %q is not a local upload", ref)
	}
	rel = path.Clean("/" + rel)[1:]
	if rel == "" {
		return fmt.Errorf("storage: %q is not a local upload", ref)
	}

	if err := os.Remove(filepath.Join(l.baseDir, filepath.FromSlash(rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: deleting %s: %w", ref, err)
	}
	return nil
}
