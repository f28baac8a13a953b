package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aob-scanner/book-scanner/internal/barcode"
	"github.com/aob-scanner/book-scanner/internal/lookup"
	"github.com/aob-scanner/book-scanner/internal/models"
	"github.com/aob-scanner/book-scanner/internal/providers"
)

type fakeGenerator struct {
	gen *providers.Generation
	err error
	req providers.Request
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, req providers.Request) (*providers.Generation, error) {
	f.req = req
	return f.gen, f.err
}

var testInput = Input{Images: []models.ImagePayload{
	{Data: []byte("front"), MIMEType: "image/jpeg", Ordinal: 1},
	{Data: []byte("back"), MIMEType: "image/png", Ordinal: 2},
}}

func TestGenerative(t *testing.T) {
	tests := []struct {
		name       string
		gen        providers.Generator
		wantReason models.Reason
		wantTitle  string
	}{
		{
			name:      "success",
			gen:       &fakeGenerator{gen: &providers.Generation{Text: `{"title":"Dune","edition":"First Edition"}`}},
			wantTitle: "Dune",
		},
		{
			name:       "blocked",
			gen:        &fakeGenerator{gen: &providers.Generation{BlockReason: "SAFETY"}},
			wantReason: models.ReasonBlocked,
		},
		{
			name:       "transport",
			gen:        &fakeGenerator{err: errors.New("connection reset")},
			wantReason: models.ReasonTransport,
		},
		{
			name:       "malformed",
			gen:        &fakeGenerator{gen: &providers.Generation{Text: "Sorry, I can't."}},
			wantReason: models.ReasonMalformedOutput,
		},
		{
			name:       "not configured",
			gen:        nil,
			wantReason: models.ReasonNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewGenerative(tt.gen, 0.1, nil).Extract(context.Background(), testInput)
			if got := models.ReasonOf(result.Err); got != tt.wantReason {
				t.Fatalf("reason = %q, want %q (err %v)", got, tt.wantReason, result.Err)
			}
			if tt.wantReason != "" && !result.Record.IsEmpty() {
				t.Errorf("failed generation must leave every field null, got %+v", result.Record)
			}
			if got := result.Record.Get("title"); got != tt.wantTitle {
				t.Errorf("title = %q, want %q", got, tt.wantTitle)
			}
		})
	}
}

func TestGenerativeSendsAllImages(t *testing.T) {
	gen := &fakeGenerator{gen: &providers.Generation{Text: `{}`}}
	NewGenerative(gen, 0.2, nil).Extract(context.Background(), testInput)
	if len(gen.req.Images) != 2 || gen.req.Prompt != Prompt || gen.req.Temperature != 0.2 {
		t.Errorf("request = %+v", gen.req)
	}
}

func TestGenerativeSetupError(t *testing.T) {
	cause := errors.New("GEMINI_API_KEY not set")
	result := NewGenerative(nil, 0, cause).Extract(context.Background(), testInput)
	if !errors.Is(result.Err, cause) {
		t.Errorf("err = %v, want wrapped %v", result.Err, cause)
	}
}

type fakeRecognizer struct {
	texts map[int]string
	err   error
}

func (f *fakeRecognizer) RecognizeText(_ context.Context, img models.ImagePayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[img.Ordinal], nil
}

func TestHeuristic(t *testing.T) {
	t.Run("isbn on second image", func(t *testing.T) {
		rec := &fakeRecognizer{texts: map[int]string{
			1: "A Long Cover Title\nby Jane Doe",
			2: "Copyright page\nISBN 978-0-13-468599-1",
		}}
		result := NewHeuristic(rec).Extract(context.Background(), testInput)
		if result.Err != nil {
			t.Fatalf("err = %v", result.Err)
		}
		if got := result.Record.Get("isbn"); got != "9780134685991" {
			t.Errorf("isbn = %q", got)
		}
		if result.Record.Publisher != nil || result.Record.Price != nil {
			t.Error("heuristic strategy only fills title, author and isbn")
		}
	})

	t.Run("no isbn keeps title", func(t *testing.T) {
		rec := &fakeRecognizer{texts: map[int]string{1: "Random Book\nby\nJane Doe"}}
		result := NewHeuristic(rec).Extract(context.Background(), testInput)
		if models.ReasonOf(result.Err) != models.ReasonNoIdentifier {
			t.Errorf("reason = %q", models.ReasonOf(result.Err))
		}
		if result.Record.Get("title") != "Random Book" || result.Record.Get("author") != "Jane Doe" {
			t.Errorf("record = %+v", result.Record)
		}
	})

	t.Run("recognition failure", func(t *testing.T) {
		result := NewHeuristic(&fakeRecognizer{err: errors.New("quota")}).Extract(context.Background(), testInput)
		if models.ReasonOf(result.Err) != models.ReasonTransport {
			t.Errorf("reason = %q", models.ReasonOf(result.Err))
		}
	})
}

func TestEnricherLogsDetails(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	book := &lookup.Book{
		Title:       "Dune",
		Description: "Desert planet.",
		Categories:  []string{"Fiction"},
		Source:      "open_library",
	}
	NewEnricher(&fakeLooker{book: book}).Enrich(context.Background(), "9780441172719")

	var entry struct {
		Msg              string   `json:"msg"`
		Source           string   `json:"source"`
		Categories       []string `json:"categories"`
		DescriptionChars int      `json:"description_chars"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if entry.Msg != "Lookup hit" || entry.Source != "open_library" || len(entry.Categories) != 1 || entry.DescriptionChars != len(book.Description) {
		t.Errorf("log entry = %+v", entry)
	}
}

type fakeDecoder struct {
	matches map[string][]barcode.Match
}

func (f *fakeDecoder) Decode(_ context.Context, data []byte) ([]barcode.Match, error) {
	if m, ok := f.matches[string(data)]; ok {
		return m, nil
	}
	return nil, barcode.ErrNoBarcode
}

func TestBarcode(t *testing.T) {
	dec := &fakeDecoder{matches: map[string][]barcode.Match{
		"back": {{Format: barcode.FormatUPCA, Value: "123456789012"}, {Format: barcode.FormatEAN13, Value: "9780134685991"}},
	}}
	result := NewBarcode(dec).Extract(context.Background(), testInput)
	if result.Err != nil {
		t.Fatalf("err = %v", result.Err)
	}
	if got := result.Record.Get("isbn"); got != "0123456789012" {
		t.Errorf("isbn = %q, want first match normalised", got)
	}

	none := NewBarcode(&fakeDecoder{}).Extract(context.Background(), testInput)
	if models.ReasonOf(none.Err) != models.ReasonNoBarcode || !none.Record.IsEmpty() {
		t.Errorf("result = %+v", none)
	}
}

type fakeLooker struct {
	book *lookup.Book
	err  error
}

func (f *fakeLooker) Name() string { return "fake" }

func (f *fakeLooker) Lookup(context.Context, string) (*lookup.Book, error) {
	return f.book, f.err
}

func TestEnricher(t *testing.T) {
	book := &lookup.Book{Title: "B", Publisher: "P", PublishedDate: "2001-05-01", ThumbnailURL: "https://covers.test/b.jpg"}
	result := NewEnricher(&fakeLooker{book: book}).Enrich(context.Background(), "123")
	if result.Err != nil {
		t.Fatal(result.Err)
	}
	if result.Record.Get("isbn") != "123" || result.Record.Get("release_date") != "2001" {
		t.Errorf("record = %+v", result.Record)
	}
	if result.Details.CoverImageURL != book.ThumbnailURL {
		t.Errorf("cover = %q", result.Details.CoverImageURL)
	}

	miss := NewEnricher(&fakeLooker{}).Enrich(context.Background(), "123")
	if models.ReasonOf(miss.Err) != models.ReasonNotFound {
		t.Errorf("miss reason = %q", models.ReasonOf(miss.Err))
	}
	down := NewEnricher(&fakeLooker{err: errors.New("timeout")}).Enrich(context.Background(), "123")
	if models.ReasonOf(down.Err) != models.ReasonTransport {
		t.Errorf("transport reason = %q", models.ReasonOf(down.Err))
	}
}

func TestOrderSeeds(t *testing.T) {
	seeds := []Strategy{NewHeuristic(&fakeRecognizer{}), NewBarcode(&fakeDecoder{})}

	names := func(ss []Strategy) []string {
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = s.Name()
		}
		return out
	}

	tests := []struct {
		hint models.ScanType
		want []string
	}{
		{models.ScanTypeUnknown, []string{NameOCR, NameBarcode}},
		{models.ScanTypeCover, []string{NameOCR, NameBarcode}},
		{models.ScanTypeBarcode, []string{NameBarcode, NameOCR}},
	}
	for _, tt := range tests {
		got := names(OrderSeeds(seeds, tt.hint))
		if got[0] != tt.want[0] || got[1] != tt.want[1] {
			t.Errorf("OrderSeeds(%q) = %v, want %v", tt.hint, got, tt.want)
		}
	}
	if seeds[0].Name() != NameOCR {
		t.Error("OrderSeeds must not reorder its input")
	}
}
