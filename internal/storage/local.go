package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// LocalStore persists blobs under a base directory on the local filesystem.
// The returned locator is the stored path relative to the base directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// BaseDir returns the root all blobs live under
func (s *LocalStore) BaseDir() string {
	return s.baseDir
}

// Store writes the blob under subpath with a sanitised, collision-free name
func (s *LocalStore) Store(subpath, filename string, r io.Reader) (string, error) {
	dir := filepath.Join(s.baseDir, filepath.FromSlash(subpath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	name := storedName(filename)
	dest := filepath.Join(dir, name)

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write blob: %w", err)
	}

	locator, err := filepath.Rel(s.baseDir, dest)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(locator), nil
}

// storedName keeps the original extension but slugs the rest and prefixes a
// short random id so repeated uploads of the same file never collide.
func storedName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	safe := slug.Make(base)
	if safe == "" {
		safe = "file"
	}
	return fmt.Sprintf("%s-%s%s", uuid.New().String()[:8], safe, ext)
}
