package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/aob-scanner/book-scanner/internal/models"
)

// Recognizer returns the full text visible in an image
type Recognizer interface {
	RecognizeText(ctx context.Context, img models.ImagePayload) (string, error)
}

// Service handles text recognition with the Cloud Vision API
type Service struct {
	vision *vision.Service
}

// NewService creates the Vision client once for the life of the process
func NewService(ctx context.Context, project string, opts ...option.ClientOption) (*Service, error) {
	if project != "" {
		opts = append(opts, option.WithQuotaProject(project))
	}
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &Service{vision: svc}, nil
}

// RecognizeText runs TEXT_DETECTION on the in-memory image bytes
func (s *Service) RecognizeText(ctx context.Context, img models.ImagePayload) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image: &vision.Image{
					Content: base64.StdEncoding.EncodeToString(img.Data),
				},
				Features: []*vision.Feature{
					{Type: "TEXT_DETECTION"},
				},
			},
		},
	}

	resp, err := s.vision.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("vision API call failed: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", nil
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil && annotation.Error.Message != "" {
		return "", fmt.Errorf("vision API error: %s", annotation.Error.Message)
	}
	if annotation.FullTextAnnotation == nil {
		slog.Info("Vision API found no text annotation", "ordinal", img.Ordinal)
		return "", nil
	}

	text := annotation.FullTextAnnotation.Text
	slog.Info("Extracted OCR text", "provider", "vision", "ordinal", img.Ordinal, "length", len(text))
	return text, nil
}
