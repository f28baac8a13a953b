package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects below a directory served at /static/uploads/
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: LOCAL_UPLOAD_DIR not set", ErrNotConfigured)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key: %s", key)
	}

	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save object: %w", err)
	}

	return s.baseURL + "/static/uploads/" + key, nil
}

// Dir is the root directory objects are written to
func (s *LocalStore) Dir() string {
	return s.dir
}
