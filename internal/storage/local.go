package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage saves images on the local filesystem and serves them under urlPrefix.
type LocalStorage struct {
	baseDir   string // root directory on disk (e.g. "./uploads")
	urlPrefix string // URL prefix they are served under (e.g. "/uploads")
}

// NewLocalStorage creates a LocalStorage.
func NewLocalStorage(baseDir, urlPrefix string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

var _ Storage = (*LocalStorage)(nil)

// BaseDir returns the directory that should be served at the URL prefix.
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

// Upload writes the file; the key doubles as the public id.
func (s *LocalStorage) Upload(_ context.Context, key string, data io.Reader, _ string) (Asset, error) {
	dest, err := s.resolve(key)
	if err != nil {
		return Asset{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Asset{}, fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return Asset{}, fmt.Errorf("storage: create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		_ = os.Remove(dest)
		return Asset{}, fmt.Errorf("storage: write: %w", err)
	}

	return Asset{URL: s.urlPrefix + "/" + filepath.ToSlash(key), PublicID: key}, nil
}

func (s *LocalStorage) Delete(_ context.Context, publicID string) error {
	dest, err := s.resolve(publicID)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}

// resolve maps a key to a path inside baseDir, rejecting traversal.
func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(key)), nil
}
