package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	books "google.golang.org/api/books/v1"
	"google.golang.org/api/option"
)

// GoogleBooks queries the Books API volumes endpoint with an isbn: query
type GoogleBooks struct {
	svc     *books.Service
	timeout time.Duration
}

// NewGoogleBooks creates the client. Without an API key the public quota is
// used.
func NewGoogleBooks(ctx context.Context, apiKey string, timeout time.Duration, opts ...option.ClientOption) (*GoogleBooks, error) {
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	} else {
		opts = append([]option.ClientOption{option.WithoutAuthentication()}, opts...)
	}
	svc, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create books service: %w", err)
	}
	return &GoogleBooks{svc: svc, timeout: timeout}, nil
}

func (g *GoogleBooks) Name() string { return "google_books" }

func (g *GoogleBooks) Lookup(ctx context.Context, isbn string) (*Book, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.svc.Volumes.List("isbn:" + isbn).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query volumes: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].VolumeInfo == nil {
		return nil, nil
	}

	info := resp.Items[0].VolumeInfo
	book := &Book{
		Title:         info.Title,
		Authors:       info.Authors,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Language:      info.Language,
		Description:   info.Description,
		Categories:    info.Categories,
		Source:        g.Name(),
	}
	if info.ImageLinks != nil {
		book.ThumbnailURL = secureThumbnail(info.ImageLinks.Thumbnail)
	}
	return book, nil
}

// secureThumbnail forces https and drops the page-curl decoration Google adds
func secureThumbnail(u string) string {
	if u == "" {
		return ""
	}
	u = strings.Replace(u, "http://", "https://", 1)
	u = strings.Replace(u, "&edge=curl", "", 1)
	return u
}
