package intake

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aob-scanner/book-scanner/internal/models"
)

// FromFiles builds a Request from image files on disk. The first path is
// the primary image; a second path, if given, is the secondary one.
func FromFiles(paths []string, scanType string) (*Request, error) {
	if len(paths) == 0 {
		return nil, &models.ValidationError{
			Reason:  models.ReasonMissingPrimary,
			Message: "missing primary image",
		}
	}

	req := &Request{ScanType: models.ParseScanType(scanType)}
	for i, path := range paths {
		if i > 1 {
			break
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", path, err)
		}
		if len(data) == 0 {
			return nil, &models.ValidationError{
				Reason:  models.ReasonMissingPrimary,
				Message: fmt.Sprintf("empty image file %s", path),
			}
		}
		mt := http.DetectContentType(data)
		if !strings.HasPrefix(mt, "image/") {
			mt = models.DefaultMIMEType
		}
		payload := models.ImagePayload{
			Data:     data,
			MIMEType: mt,
			Ordinal:  i + 1,
		}
		if i == 0 {
			req.Primary = payload
		} else {
			req.Secondary = &payload
		}
	}
	return req, nil
}
