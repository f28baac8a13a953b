package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const openLibraryBaseURL = "https://openlibrary.org"

// OpenLibrary uses the Books API with jscmd=data
type OpenLibrary struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewOpenLibrary(timeout time.Duration) *OpenLibrary {
	return &OpenLibrary{
		BaseURL: openLibraryBaseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type openLibraryNamed struct {
	Name string `json:"name"`
}

// openLibraryBooksResponse is keyed by the requested bibkey, e.g. "ISBN:978..."
type openLibraryBooksResponse map[string]struct {
	Title       string             `json:"title"`
	Subtitle    string             `json:"subtitle"`
	Authors     []openLibraryNamed `json:"authors"`
	Publishers  []openLibraryNamed `json:"publishers"`
	PublishDate string             `json:"publish_date"`
	Subjects    []openLibraryNamed `json:"subjects"`
	Notes       json.RawMessage    `json:"notes"`
	Cover       struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

func (o *OpenLibrary) Name() string { return "open_library" }

func (o *OpenLibrary) Lookup(ctx context.Context, isbn string) (*Book, error) {
	bibkey := "ISBN:" + isbn
	q := url.Values{}
	q.Set("bibkeys", bibkey)
	q.Set("format", "json")
	q.Set("jscmd", "data")
	reqURL := o.BaseURL + "/api/books?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch book data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("open library returned status %d: %s", resp.StatusCode, string(body))
	}

	var data openLibraryBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	entry, ok := data[bibkey]
	if !ok || entry.Title == "" {
		return nil, nil
	}

	book := &Book{
		Title:         entry.Title,
		PublishedDate: entry.PublishDate,
		Description:   notesText(entry.Notes),
		Source:        o.Name(),
	}
	for _, a := range entry.Authors {
		book.Authors = append(book.Authors, a.Name)
	}
	if len(entry.Publishers) > 0 {
		book.Publisher = entry.Publishers[0].Name
	}
	for _, s := range entry.Subjects {
		book.Categories = append(book.Categories, s.Name)
	}
	switch {
	case entry.Cover.Large != "":
		book.ThumbnailURL = entry.Cover.Large
	case entry.Cover.Medium != "":
		book.ThumbnailURL = entry.Cover.Medium
	default:
		book.ThumbnailURL = entry.Cover.Small
	}
	return book, nil
}

// notesText handles both shapes Open Library uses for notes: a bare string
// or {"type": ..., "value": ...}.
func notesText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &typed); err == nil {
		return typed.Value
	}
	return ""
}
