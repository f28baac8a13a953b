package metadata

import (
	"math"
	"testing"

	"github.com/aob-scanner/book-scanner/internal/models"
)

func record(fields map[string]string) models.MetadataRecord {
	var r models.MetadataRecord
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"café", "cafe", 1},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareField(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		expected  string
		actual    string
		wantMatch string
		wantScore float64
	}{
		{"exact after normalisation", "title", "Dune: Messiah", "dune messiah", "exact", 1},
		{"missing", "author", "Frank Herbert", "", "missing", 0},
		{"isbn separators ignored", "isbn", "978-0-13-468599-1", "9780134685991", "exact", 1},
		{"year from full date", "release_date", "1965", "June 1965", "exact", 1},
		{"fuzzy", "title", "The Hobbit", "The Hobbits", "fuzzy_high", 0.909},
		{"no match", "publisher", "Penguin", "Ace Books", "no_match", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareField(tt.field, tt.expected, tt.actual)
			if got.Match != tt.wantMatch {
				t.Errorf("Match = %q, want %q (score %.3f)", got.Match, tt.wantMatch, got.Score)
			}
			if tt.wantScore >= 0 && math.Abs(got.Score-tt.wantScore) > 0.01 {
				t.Errorf("Score = %.3f, want %.3f", got.Score, tt.wantScore)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	expected := record(map[string]string{"title": "Dune", "author": "Frank Herbert", "isbn": "9780441172719", "language": "English"})
	actual := record(map[string]string{"title": "Dune", "author": "Frank Herbert", "isbn": "9780441172710", "publisher": "Ace"})

	c := Compare(expected, actual)

	if len(c.Fields) != 4 {
		t.Errorf("compared %d fields, want only those with ground truth (4)", len(c.Fields))
	}
	if c.FieldsMatched != 3 || c.FieldsMissing != 1 || c.FieldsIncorrect != 0 {
		t.Errorf("matched/missing/incorrect = %d/%d/%d", c.FieldsMatched, c.FieldsMissing, c.FieldsIncorrect)
	}
	if _, ok := c.Fields["publisher"]; ok {
		t.Error("publisher has no reference value and must be skipped")
	}
	if c.OverallScore <= 0.7 || c.OverallScore >= 1 {
		t.Errorf("OverallScore = %.3f", c.OverallScore)
	}
}

func TestCompareEmptyExpected(t *testing.T) {
	c := Compare(models.MetadataRecord{}, record(map[string]string{"title": "x"}))
	if len(c.Fields) != 0 || c.OverallScore != 0 {
		t.Errorf("comparison = %+v", c)
	}
}
