package models

import (
	"regexp"
	"strings"
)

// MetadataRecord is the canonical output schema. A nil field means
// "undetermined" and is always serialized as null, never omitted.
type MetadataRecord struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	ISBN        *string `json:"isbn"`
	Publisher   *string `json:"publisher"`
	ReleaseDate *string `json:"release_date"`
	Language    *string `json:"language"`
	Edition     *string `json:"edition"`
	Signature   *string `json:"signature"`
	Volume      *string `json:"volume"`
	Price       *string `json:"price"`
}

// FieldNames lists the canonical keys in output order
var FieldNames = []string{
	"title", "author", "isbn", "publisher", "release_date",
	"language", "edition", "signature", "volume", "price",
}

// SignedMarker is the only non-null value allowed for Signature
const SignedMarker = "Signed"

// Field returns a pointer to the named field, or nil for unknown names
func (r *MetadataRecord) Field(name string) **string {
	switch name {
	case "title":
		return &r.Title
	case "author":
		return &r.Author
	case "isbn":
		return &r.ISBN
	case "publisher":
		return &r.Publisher
	case "release_date":
		return &r.ReleaseDate
	case "language":
		return &r.Language
	case "edition":
		return &r.Edition
	case "signature":
		return &r.Signature
	case "volume":
		return &r.Volume
	case "price":
		return &r.Price
	}
	return nil
}

// Get returns the named field value or "" when null
func (r *MetadataRecord) Get(name string) string {
	if p := r.Field(name); p != nil && *p != nil {
		return **p
	}
	return ""
}

// Set assigns the named field; empty strings become null
func (r *MetadataRecord) Set(name, value string) {
	p := r.Field(name)
	if p == nil {
		return
	}
	*p = StringPtr(value)
}

// IsEmpty reports whether every field is null
func (r *MetadataRecord) IsEmpty() bool {
	for _, name := range FieldNames {
		if r.Get(name) != "" {
			return false
		}
	}
	return true
}

// StringPtr returns nil for "" so empty values serialize as null
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// BookDetails carries lookup-only data that has no slot in MetadataRecord
type BookDetails struct {
	Description   string   `json:"description,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	CoverImageURL string   `json:"cover_image_url,omitempty"`
	Source        string   `json:"source,omitempty"`
}

// ExtractionResult is what one strategy produced for one request
type ExtractionResult struct {
	Strategy string
	Record   MetadataRecord
	Details  BookDetails
	Err      error
}

var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)

// NormalizeYear reduces a date to its 4-digit year when one is present,
// otherwise the trimmed input is kept.
func NormalizeYear(date string) string {
	date = strings.TrimSpace(date)
	if m := yearPattern.FindString(date); m != "" {
		return m
	}
	return date
}
