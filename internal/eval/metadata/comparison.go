package metadata

import (
	"regexp"
	"strings"

	"github.com/aob-scanner/book-scanner/internal/models"
)

// ScoredFields are compared; signature, volume and price have no reliable
// ground truth.
var ScoredFields = []string{"title", "author", "isbn", "publisher", "release_date", "language", "edition"}

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Compare scores actual against expected using normalised Levenshtein
// similarity. Fields without a reference value are skipped.
func Compare(expected, actual models.MetadataRecord) *Comparison {
	comparison := &Comparison{
		Fields: make(map[string]FieldComparison),
	}

	totalScore := 0.0
	fieldCount := 0

	for _, name := range ScoredFields {
		exp := expected.Get(name)
		if normalizeText(exp) == "" {
			continue
		}
		act := actual.Get(name)
		fc := compareField(name, exp, act)
		comparison.Fields[name] = fc

		totalScore += fc.Score
		comparison.LevenshteinTotal += fc.Distance
		fieldCount++

		switch {
		case fc.Match == "missing":
			comparison.FieldsMissing++
		case fc.Score > 0.8:
			comparison.FieldsMatched++
		default:
			comparison.FieldsIncorrect++
		}
	}

	if fieldCount > 0 {
		comparison.OverallScore = totalScore / float64(fieldCount)
	}
	return comparison
}

// compareField compares a single field using Levenshtein distance
func compareField(fieldName, expected, actual string) FieldComparison {
	comp := FieldComparison{
		FieldName: fieldName,
		Expected:  expected,
		Actual:    actual,
	}

	expNorm := normalizeField(fieldName, expected)
	actNorm := normalizeField(fieldName, actual)

	if actNorm == "" {
		comp.Distance = len([]rune(expNorm))
		comp.Match = "missing"
		return comp
	}

	distance := Levenshtein(expNorm, actNorm)
	comp.Distance = distance

	if expNorm == actNorm {
		comp.Score = 1.0
		comp.Match = "exact"
		return comp
	}

	maxLen := max(len([]rune(expNorm)), len([]rune(actNorm)))
	similarity := 1.0 - float64(distance)/float64(maxLen)
	comp.Score = similarity

	switch {
	case similarity > 0.9:
		comp.Match = "fuzzy_high"
	case similarity > 0.7:
		comp.Match = "fuzzy_medium"
	case similarity > 0.5:
		comp.Match = "fuzzy_low"
	default:
		comp.Match = "no_match"
	}
	return comp
}

func normalizeField(name, value string) string {
	switch name {
	case "isbn":
		return strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(value)))
	case "release_date":
		return models.NormalizeYear(value)
	}
	return normalizeText(value)
}

// normalizeText lower-cases, drops punctuation and collapses whitespace
func normalizeText(text string) string {
	text = strings.ToLower(text)
	text = punctuation.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// Levenshtein returns the edit distance between two strings, by rune
func Levenshtein(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
