package ocr

import "testing"

func TestParseText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Parsed
	}{
		{
			name: "standalone by with hyphenated isbn",
			text: "Random Book\nby\nJane Doe\nISBN 978-0-13-468599-1",
			expected: Parsed{
				Title:  "Random Book",
				Author: "Jane Doe",
				ISBN:   "9780134685991",
			},
		},
		{
			name: "line ending in by",
			text: "THE ADVENTURES OF TOM SAWYER\nA novel written by\nMark Twain\n",
			expected: Parsed{
				Title:  "THE ADVENTURES OF TOM SAWYER",
				Author: "Mark Twain",
			},
		},
		{
			name: "by inside a title is not an author marker",
			text: "Stand by Me and Other Stories\nStephen King",
			expected: Parsed{
				Title: "Stand by Me and Other Stories",
			},
		},
		{
			name: "by followed by a name on the same line",
			text: "Moby-Dick; or, The Whale\nBy Herman Melville",
			expected: Parsed{
				Title: "Moby-Dick; or, The Whale",
			},
		},
		{
			name: "isbn-10 with check character",
			text: "Gödel, Escher, Bach\nISBN-10: 0-465-02656-X",
			expected: Parsed{
				Title: "Gödel, Escher, Bach",
				ISBN:  "046502656X",
			},
		},
		{
			name: "ties go to the first line",
			text: "abcd\nefgh",
			expected: Parsed{
				Title: "abcd",
			},
		},
		{
			name: "short lines are not titles",
			text: "abc\nby\nxyz",
			expected: Parsed{
				Author: "xyz",
			},
		},
		{
			name:     "empty text",
			text:     "  \n\n ",
			expected: Parsed{},
		},
		{
			name: "author equal to isbn is skipped",
			text: "Some Title Here\nby\n9780134685991",
			expected: Parsed{
				Title: "Some Title Here",
				ISBN:  "9780134685991",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseText(tt.text)
			if got != tt.expected {
				t.Errorf("ParseText() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestParseTextIsDeterministic(t *testing.T) {
	text := "Clean Code\nby\nRobert C. Martin\nISBN 9780132350884"
	first := ParseText(text)
	for i := 0; i < 5; i++ {
		if got := ParseText(text); got != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestMatchISBN(t *testing.T) {
	tests := map[string]string{
		"ISBN 978-0-13-468599-1": "9780134685991",
		"isbn:9780132350884":     "9780132350884",
		"ISBN-13 979-10-90636-07-1": "9791090636071",
		"0 465 02656 X":          "046502656X",
		"Call 555-1234":          "",
		"no digits here":         "",
	}
	for in, want := range tests {
		if got := MatchISBN(in); got != want {
			t.Errorf("MatchISBN(%q) = %q, want %q", in, got, want)
		}
	}
}
