package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aob-scanner/book-scanner/internal/models"
)

const (
	CoverPrefix = "book_covers/"
	EntryPrefix = "entries/"
)

// Archiver persists request images under fresh random keys.
// Failures are reported, never fatal.
type Archiver struct {
	store BlobStore
}

func NewArchiver(store BlobStore) *Archiver {
	if store == nil {
		store = Unavailable(nil)
	}
	return &Archiver{store: store}
}

// NewKey returns prefix + a random (version 4) UUID + ext
func NewKey(prefix, ext string) string {
	return prefix + uuid.NewString() + ext
}

// Archive writes each image and returns the successful ones keyed by ordinal.
// The returned error is an *models.ArchiveError (or a join of them) and only
// describes the images that could not be stored.
func (a *Archiver) Archive(ctx context.Context, images []models.ImagePayload) (map[int]models.ArchivedImage, error) {
	archived := make(map[int]models.ArchivedImage, len(images))
	var errs []error

	for _, img := range images {
		contentType := img.MIMEType
		if contentType == "" {
			contentType = models.DefaultMIMEType
		}
		key := NewKey(CoverPrefix, ExtensionFor(contentType))

		url, err := a.store.Put(ctx, key, img.Data, contentType)
		if err != nil {
			reason := models.ReasonWriteFailed
			if errors.Is(err, ErrNotConfigured) {
				reason = models.ReasonNotConfigured
			}
			slog.Error("Image upload failed", "ordinal", img.Ordinal, "key", key, "err", err)
			errs = append(errs, &models.ArchiveError{
				Reason: reason,
				Err:    fmt.Errorf("image %d: %w", img.Ordinal, err),
			})
			if reason == models.ReasonNotConfigured {
				// same outcome for the remaining images
				break
			}
			continue
		}

		slog.Info("Image uploaded", "ordinal", img.Ordinal, "key", key, "url", url)
		archived[img.Ordinal] = models.ArchivedImage{Ordinal: img.Ordinal, Key: key, URL: url}
	}

	return archived, errors.Join(errs...)
}

// Put stores arbitrary data under a new key below prefix
func (a *Archiver) Put(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	key := NewKey(prefix, ExtensionFor(contentType))
	return a.store.Put(ctx, key, data, contentType)
}
