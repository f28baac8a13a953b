package metadata

// Comparison is the field-by-field score of one extracted record
type Comparison struct {
	Fields           map[string]FieldComparison `json:"fields"`
	OverallScore     float64                    `json:"overall_score"`
	FieldsMatched    int                        `json:"fields_matched"`
	FieldsMissing    int                        `json:"fields_missing"`
	FieldsIncorrect  int                        `json:"fields_incorrect"`
	LevenshteinTotal int                        `json:"levenshtein_total"`
}

// FieldComparison represents comparison for a single metadata field
type FieldComparison struct {
	FieldName string  `json:"field"`
	Expected  string  `json:"expected"`
	Actual    string  `json:"actual"`
	Score     float64 `json:"score"`    // 0.0 to 1.0
	Distance  int     `json:"distance"` // Levenshtein distance
	Match     string  `json:"match"`    // "exact", "fuzzy_high", "fuzzy_medium", "fuzzy_low", "no_match", "missing"
}
