package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

// GCSStore writes publicly readable objects to a Cloud Storage bucket
type GCSStore struct {
	bucket  string
	service *gcs.Service
}

// NewGCSStore creates the JSON API client once; it is reused for every request
func NewGCSStore(ctx context.Context, bucket, project string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: GCS_BUCKET_NAME not set", ErrNotConfigured)
	}
	if project != "" {
		opts = append(opts, option.WithQuotaProject(project))
	}

	service, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	slog.Info("GCS blob store ready", "bucket", bucket, "project", project)
	return &GCSStore{bucket: bucket, service: service}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	obj := &gcs.Object{
		Name:        key,
		ContentType: contentType,
	}

	_, err := s.service.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		PredefinedAcl("publicRead").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload gs://%s/%s: %w", s.bucket, key, err)
	}

	return s.PublicURL(key), nil
}

// PublicURL is the anonymous-read URL of an object in the bucket
func (s *GCSStore) PublicURL(key string) string {
	u := url.URL{
		Scheme: "https",
		Host:   "storage.googleapis.com",
		Path:   "/" + s.bucket + "/" + key,
	}
	return u.String()
}
