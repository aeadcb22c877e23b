// Package storage persists uploaded files on local disk behind opaque
// references.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local writes files under a base directory. References are generated, never
// derived from the client-supplied name, so uploads cannot escape the base
// directory.
type Local struct {
	baseDir string
}

// NewLocal ensures the base directory exists and returns the store.
func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{baseDir: baseDir}, nil
}

// Store copies content to disk and returns the reference to read it back.
func (l *Local) Store(ctx context.Context, name string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := uuid.NewString() + sanitizeExt(name)
	f, err := os.Create(filepath.Join(l.baseDir, ref))
	if err != nil {
		return "", fmt.Errorf("create proof file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, content); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write proof file: %w", err)
	}
	return ref, nil
}

// Open returns the stored content for a reference.
func (l *Local) Open(ref string) (io.ReadCloser, error) {
	if ref != filepath.Base(ref) {
		return nil, fmt.Errorf("invalid file reference %q", ref)
	}
	return os.Open(filepath.Join(l.baseDir, ref))
}

// sanitizeExt keeps a short, lowercase extension from the original name so the
// stored file stays recognizable, and drops anything suspicious.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
