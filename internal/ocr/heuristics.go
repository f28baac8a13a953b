package ocr

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	isbnPattern   = regexp.MustCompile(`(?i)\b(?:ISBN(?:-1[03])?:?\s*)?((?:97[89]-?)?\d(?:-?\d){8,11}-?[\dX])\b`)
	isbnSeparator = regexp.MustCompile(`[- ]`)
)

// Parsed is the best-effort result of the line heuristics
type Parsed struct {
	Title  string
	Author string
	ISBN   string
}

// ParseText applies the line rules to recognized text. It is deterministic:
// the same text always yields the same result.
func ParseText(text string) Parsed {
	lines := splitLines(text)
	var parsed Parsed

	isbnLine := -1
	for i, line := range lines {
		if isbn := MatchISBN(line); isbn != "" {
			parsed.ISBN = isbn
			isbnLine = i
			break
		}
	}

	authorLine := findAuthor(lines, parsed.ISBN, &parsed.Author)

	// longest remaining line wins, first occurrence on ties
	for i, line := range lines {
		if i == authorLine || i == isbnLine {
			continue
		}
		if line == parsed.ISBN || isByMarker(line) {
			continue
		}
		n := utf8.RuneCountInString(line)
		if n > 3 && n > utf8.RuneCountInString(parsed.Title) {
			parsed.Title = line
		}
	}

	return parsed
}

// MatchISBN finds an ISBN-like number in a line and strips its separators
func MatchISBN(line string) string {
	m := isbnPattern.FindStringSubmatch(strings.ReplaceAll(line, " ", ""))
	if m == nil {
		return ""
	}
	isbn := strings.ToUpper(isbnSeparator.ReplaceAllString(m[1], ""))
	if len(isbn) < 10 || len(isbn) > 13 {
		return ""
	}
	return isbn
}

// findAuthor returns the index of the line holding the author, or -1.
// Only a standalone "by" line or a line ending in " by" introduces an
// author, and the author is always the following line.
func findAuthor(lines []string, isbn string, author *string) int {
	for i, line := range lines {
		lower := strings.ToLower(line)
		if lower != "by" && !strings.HasSuffix(lower, " by") {
			continue
		}
		if i+1 < len(lines) && !sameAsISBN(lines[i+1], isbn) {
			*author = lines[i+1]
			return i + 1
		}
	}
	return -1
}

func isByMarker(line string) bool {
	return strings.EqualFold(line, "by")
}

func sameAsISBN(line, isbn string) bool {
	if isbn == "" {
		return false
	}
	return line == isbn || strings.ToUpper(isbnSeparator.ReplaceAllString(line, "")) == isbn
}

func splitLines(text string) []string {
	raw := strings.Split(strings.TrimSpace(text), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
