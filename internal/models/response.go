package models

// ResponseEnvelope is the JSON body returned by the process-image endpoint
type ResponseEnvelope struct {
	Message          string         `json:"message"`
	ImageURL         *string        `json:"image_url"`
	ImageURL2        *string        `json:"image_url_2"`
	CapturedImageURL *string        `json:"captured_image_url"`
	GCSError         *string        `json:"gcs_error"`
	GeminiError      *string        `json:"gemini_error"`
	LookupError      *string        `json:"lookup_error"`
	ParsedFields     MetadataRecord `json:"parsed_fields"`
}

// ErrorString converts an optional error into a nullable status slot
func ErrorString(err error) *string {
	if err == nil {
		return nil
	}
	return StringPtr(err.Error())
}
