package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// ErrNotConfigured is returned by stores that are missing their target location
var ErrNotConfigured = errors.New("blob store not configured")

// BlobStore writes an object under key and returns its public URL
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ExtensionFor maps an image MIME type to a file extension
func ExtensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "", "image/jpeg", "image/jpg", "image/pjpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	case "application/json":
		return ".json"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// notConfiguredStore stands in when the real store could not be built
type notConfiguredStore struct {
	cause error
}

func (s notConfiguredStore) Put(context.Context, string, []byte, string) (string, error) {
	if s.cause != nil {
		return "", fmt.Errorf("%w: %v", ErrNotConfigured, s.cause)
	}
	return "", ErrNotConfigured
}

// Unavailable returns a store whose every write fails with ErrNotConfigured
func Unavailable(cause error) BlobStore {
	return notConfiguredStore{cause: cause}
}
