// Package reconcile merges partial records into the canonical response.
package reconcile

import (
	"github.com/aob-scanner/book-scanner/internal/models"
)

// generativeOnly are fields no bibliographic database provides
var generativeOnly = map[string]bool{
	"edition":   true,
	"signature": true,
	"volume":    true,
	"price":     true,
}

// Merge applies the per-field precedence: a non-null lookup value wins,
// otherwise the primary (generative) value is kept, otherwise null.
// Lookup never supplies edition, signature, volume or price.
func Merge(primary, lookup models.MetadataRecord) models.MetadataRecord {
	merged := primary
	for _, name := range models.FieldNames {
		if generativeOnly[name] {
			continue
		}
		if v := lookup.Get(name); v != "" {
			merged.Set(name, v)
		}
	}
	return merged
}

// Inputs is everything the pipeline collected for one request
type Inputs struct {
	Primary  models.ExtractionResult
	Lookup   *models.ExtractionResult
	Archived map[int]models.ArchivedImage

	ArchiveErr    error
	GenerationErr error
	LookupErr     error

	// ModelFailed is set when a configured model errored or was blocked.
	// Parsed fields then stay null even if a seeded lookup succeeded.
	ModelFailed bool
}

// Message is the envelope message for every processed request
const Message = "Image processed."

// Envelope assembles the response. It cannot fail: stage errors are copied
// into their slots and every field key is always present.
func Envelope(in Inputs) models.ResponseEnvelope {
	record := in.Primary.Record
	var cover string
	if in.Lookup != nil && in.Lookup.Err == nil {
		if !in.ModelFailed {
			record = Merge(record, in.Lookup.Record)
		}
		cover = in.Lookup.Details.CoverImageURL
	}

	env := models.ResponseEnvelope{
		Message:      Message,
		ParsedFields: record,
		GCSError:     models.ErrorString(in.ArchiveErr),
		GeminiError:  models.ErrorString(in.GenerationErr),
		LookupError:  models.ErrorString(in.LookupErr),
	}

	if img, ok := in.Archived[1]; ok {
		env.CapturedImageURL = models.StringPtr(img.URL)
	}
	if img, ok := in.Archived[2]; ok {
		env.ImageURL2 = models.StringPtr(img.URL)
	}
	env.ImageURL = SelectImageURL(cover, env.CapturedImageURL)
	return env
}

// SelectImageURL prefers the catalog cover over the caller's own photo
func SelectImageURL(cover string, captured *string) *string {
	if cover != "" {
		return models.StringPtr(cover)
	}
	return captured
}
