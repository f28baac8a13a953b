// Package intake validates and decodes the process-image request body.
package intake

import (
	"encoding/base64"
	"strings"

	"github.com/aob-scanner/book-scanner/internal/models"
)

const (
	PrimaryKey   = "image_data_1"
	SecondaryKey = "image_data_2"
	ScanTypeKey  = "scan_type"

	base64Marker = ";base64,"
)

// Request is the decoded form of a process-image body
type Request struct {
	Primary   models.ImagePayload
	Secondary *models.ImagePayload
	ScanType  models.ScanType
}

// Images returns the primary image followed by the secondary one, if any
func (r *Request) Images() []models.ImagePayload {
	images := []models.ImagePayload{r.Primary}
	if r.Secondary != nil {
		images = append(images, *r.Secondary)
	}
	return images
}

// Decode validates the body and decodes its data URLs. Only the primary
// image can fail the request; a bad secondary image is dropped.
func Decode(body map[string]any) (*Request, error) {
	raw, ok := body[PrimaryKey]
	dataURL, isString := raw.(string)
	if !ok || !isString || dataURL == "" {
		return nil, &models.ValidationError{
			Reason:  models.ReasonMissingPrimary,
			Message: "missing primary image",
		}
	}

	primary, err := DecodeDataURL(dataURL, 1)
	if err != nil {
		return nil, err
	}

	req := &Request{Primary: primary}

	if s, ok := body[SecondaryKey].(string); ok && s != "" {
		if secondary, err := DecodeDataURL(s, 2); err == nil {
			req.Secondary = &secondary
		}
	}

	if s, ok := body[ScanTypeKey].(string); ok {
		req.ScanType = models.ParseScanType(s)
	}

	return req, nil
}

// DecodeDataURL decodes "<header>;base64,<payload>" into an ImagePayload
func DecodeDataURL(dataURL string, ordinal int) (models.ImagePayload, error) {
	header, encoded, found := strings.Cut(dataURL, base64Marker)
	if !found {
		return models.ImagePayload{}, &models.ValidationError{
			Reason:  models.ReasonMalformedURL,
			Message: "malformed data URL",
		}
	}

	data, err := decodeBase64(encoded)
	if err != nil {
		return models.ImagePayload{}, &models.DecodeError{Err: err}
	}
	if len(data) == 0 {
		return models.ImagePayload{}, &models.ValidationError{
			Reason:  models.ReasonMissingPrimary,
			Message: "empty image payload",
		}
	}

	return models.ImagePayload{
		Data:     data,
		MIMEType: mimeFromHeader(header),
		Ordinal:  ordinal,
	}, nil
}

func decodeBase64(encoded string) ([]byte, error) {
	encoded = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, encoded)

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err == nil {
		return data, nil
	}
	// some clients drop the padding
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

func mimeFromHeader(header string) string {
	mt := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "data:")))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	if !strings.HasPrefix(mt, "image/") {
		return models.DefaultMIMEType
	}
	return mt
}
