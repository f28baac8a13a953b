// Package lookup fetches authoritative bibliographic data by ISBN.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aob-scanner/book-scanner/internal/models"
)

// Book is what a bibliographic database knows about one ISBN
type Book struct {
	Title         string
	Authors       []string
	Publisher     string
	PublishedDate string
	Language      string
	Description   string
	Categories    []string
	ThumbnailURL  string
	Source        string
}

// Looker finds a book by ISBN. A miss is (nil, nil) so the next source can
// try; errors are reserved for transport and decoding failures.
type Looker interface {
	Name() string
	Lookup(ctx context.Context, isbn string) (*Book, error)
}

// Chain asks each source in order and returns the first hit
type Chain struct {
	sources []Looker
	timeout time.Duration
}

func NewChain(sources ...Looker) *Chain {
	return &Chain{sources: sources}
}

// WithTimeout bounds every source call by d on its own, so a source that
// hangs cannot use up the time of the ones after it.
func (c *Chain) WithTimeout(d time.Duration) *Chain {
	c.timeout = d
	return c
}

// Budget is the longest a full pass over the sources can take, or zero when
// calls are unbounded.
func (c *Chain) Budget() time.Duration {
	return c.timeout * time.Duration(len(c.sources))
}

func (c *Chain) Name() string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

// Lookup returns (nil, nil) only when every source answered with a miss
func (c *Chain) Lookup(ctx context.Context, isbn string) (*Book, error) {
	var errs []error
	for _, src := range c.sources {
		book, err := c.lookupOne(ctx, src, isbn)
		if err != nil {
			slog.Warn("Lookup source failed", "source", src.Name(), "isbn", isbn, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		if book != nil {
			slog.Debug("Lookup source matched", "source", src.Name(), "isbn", isbn)
			return book, nil
		}
		slog.Debug("Lookup miss", "source", src.Name(), "isbn", isbn)
	}
	return nil, errors.Join(errs...)
}

func (c *Chain) lookupOne(ctx context.Context, src Looker, isbn string) (*Book, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return src.Lookup(ctx, isbn)
}

// Record converts the book into the canonical schema. The isbn used for the
// lookup is carried over since the match was made on it.
func (b *Book) Record(isbn string) models.MetadataRecord {
	var r models.MetadataRecord
	r.Set("title", strings.TrimSpace(b.Title))
	r.Set("author", joinNonEmpty(b.Authors))
	r.Set("isbn", isbn)
	r.Set("publisher", strings.TrimSpace(b.Publisher))
	r.Set("release_date", models.NormalizeYear(b.PublishedDate))
	r.Set("language", strings.TrimSpace(b.Language))
	return r
}

// Details returns the lookup-only data
func (b *Book) Details() models.BookDetails {
	return models.BookDetails{
		Description:   b.Description,
		Categories:    b.Categories,
		CoverImageURL: b.ThumbnailURL,
		Source:        b.Source,
	}
}

func joinNonEmpty(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
