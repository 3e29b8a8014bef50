package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps photos in a directory served by the HTTP layer.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir when missing.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	dir = filepath.Clean(strings.TrimSpace(dir))
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return nil, fmt.Errorf("storage: create dir: %w", errMkdir)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}, nil
}

// Dir returns the root directory.
func (s *LocalStore) Dir() string { return s.dir }

// Put implements PhotoStore.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanObjectName(name)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, filepath.FromSlash(clean))
	if errMkdir := os.MkdirAll(filepath.Dir(path), 0o755); errMkdir != nil {
		return fmt.Errorf("storage: create dir: %w", errMkdir)
	}
	f, errOpen := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errOpen != nil {
		if errors.Is(errOpen, os.ErrExist) {
			return ErrObjectExists
		}
		return fmt.Errorf("storage: open %s: %w", clean, errOpen)
	}
	if _, errWrite := f.Write(data); errWrite != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("storage: write %s: %w", clean, errWrite)
	}
	return f.Close()
}

// Delete implements PhotoStore.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	clean, err := cleanObjectName(name)
	if err != nil {
		return err
	}
	if errRemove := os.Remove(filepath.Join(s.dir, filepath.FromSlash(clean))); errRemove != nil && !errors.Is(errRemove, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", clean, errRemove)
	}
	return nil
}

// PublicURL implements PhotoStore.
func (s *LocalStore) PublicURL(name string) string {
	return s.baseURL + "/" + strings.TrimLeft(name, "/")
}
