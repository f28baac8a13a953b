package models

import (
	"encoding/base64"
	"strings"
)

const DefaultMIMEType = "image/jpeg"

// ImagePayload is one submitted image, decoded from the request
type ImagePayload struct {
	Data     []byte
	MIMEType string
	Ordinal  int // 1 = primary, 2 = secondary
}

// Format returns the image subtype ("jpeg", "png") used by model APIs
func (p ImagePayload) Format() string {
	mt := p.MIMEType
	if mt == "" {
		mt = DefaultMIMEType
	}
	return strings.TrimPrefix(mt, "image/")
}

// DataURL re-encodes the payload as a base64 data URL
func (p ImagePayload) DataURL() string {
	mt := p.MIMEType
	if mt == "" {
		mt = DefaultMIMEType
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// ArchivedImage links an ImagePayload to its durable storage key and public URL
type ArchivedImage struct {
	Ordinal int    `json:"ordinal"`
	Key     string `json:"key"`
	URL     string `json:"url"`
}

// ScanType is the caller's hint about what the photo shows
type ScanType string

const (
	ScanTypeUnknown ScanType = ""
	ScanTypeCover   ScanType = "cover"
	ScanTypeBarcode ScanType = "barcode"
)

// ParseScanType maps free text to a known hint; unknown values are ignored
func ParseScanType(s string) ScanType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cover", "title_page", "copyright":
		return ScanTypeCover
	case "barcode", "isbn":
		return ScanTypeBarcode
	default:
		return ScanTypeUnknown
	}
}
