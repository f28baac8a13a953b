package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aob-scanner/book-scanner/internal/lookup"
	"github.com/aob-scanner/book-scanner/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseFailure is returned when the model's reply holds no usable JSON object.
// Raw keeps the reply so it can be logged.
type ParseFailure struct {
	Raw   string
	Cause error
}

func (p *ParseFailure) Error() string {
	return fmt.Sprintf("unparsable model output: %v", p.Cause)
}

func (p *ParseFailure) Unwrap() error {
	return p.Cause
}

var errNoObject = errors.New("no JSON object in response")

// outputSchema accepts what models actually send for a field: strings,
// numbers, booleans, null or lists of strings. Nested objects are rejected.
const outputSchema = `{
  "type": "object",
  "additionalProperties": true,
  "properties": {
    "title":        {"$ref": "#/$defs/field"},
    "author":       {"$ref": "#/$defs/field"},
    "isbn":         {"$ref": "#/$defs/field"},
    "publisher":    {"$ref": "#/$defs/field"},
    "release_date": {"$ref": "#/$defs/field"},
    "language":     {"$ref": "#/$defs/field"},
    "edition":      {"$ref": "#/$defs/field"},
    "signature":    {"$ref": "#/$defs/field"},
    "volume":       {"$ref": "#/$defs/field"},
    "price":        {"$ref": "#/$defs/field"}
  },
  "$defs": {
    "field": {
      "anyOf": [
        {"type": ["string", "number", "boolean", "null"]},
        {"type": "array", "items": {"type": ["string", "number"]}}
      ]
    }
  }
}`

var outputValidator = jsonschema.MustCompileString("model_output.json", outputSchema)

var (
	pricePattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	nullWords    = map[string]bool{"": true, "null": true, "none": true, "unknown": true, "n/a": true, "na": true}
)

// ParseModelOutput extracts the canonical fields from a model reply. The
// first '{' to the last '}' is taken as the candidate object; keys outside
// the canonical schema are dropped and missing keys stay null.
func ParseModelOutput(raw string) (models.MetadataRecord, *ParseFailure) {
	var rec models.MetadataRecord

	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return rec, &ParseFailure{Raw: raw, Cause: errNoObject}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return rec, &ParseFailure{Raw: raw, Cause: fmt.Errorf("failed to decode JSON: %w", err)}
	}
	if err := outputValidator.Validate(obj); err != nil {
		return rec, &ParseFailure{Raw: raw, Cause: fmt.Errorf("json does not match schema: %w", err)}
	}

	for _, name := range models.FieldNames {
		value, ok := obj[name]
		if !ok {
			continue
		}
		rec.Set(name, normalizeField(name, value))
	}
	return rec, nil
}

func normalizeField(name string, value any) string {
	if name == "signature" {
		return normalizeSignature(value)
	}

	s := stringify(value)
	if nullWords[strings.ToLower(s)] {
		return ""
	}
	switch name {
	case "isbn":
		return lookup.CleanISBN(s)
	case "release_date":
		return models.NormalizeYear(s)
	case "price":
		return strings.ReplaceAll(pricePattern.FindString(s), ",", ".")
	}
	return s
}

// normalizeSignature never lets free text through; only an explicit yes maps
// to the marker.
func normalizeSignature(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return models.SignedMarker
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "signed", "yes", "true":
			return models.SignedMarker
		}
	}
	return ""
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
