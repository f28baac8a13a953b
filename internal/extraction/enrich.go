package extraction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aob-scanner/book-scanner/internal/lookup"
	"github.com/aob-scanner/book-scanner/internal/models"
)

// Enricher fetches authoritative data once an ISBN is known
type Enricher struct {
	looker lookup.Looker
}

func NewEnricher(looker lookup.Looker) *Enricher {
	return &Enricher{looker: looker}
}

func (e *Enricher) Name() string { return NameLookup }

// Enrich looks isbn up. The record's isbn is the key that matched.
func (e *Enricher) Enrich(ctx context.Context, isbn string) models.ExtractionResult {
	result := models.ExtractionResult{Strategy: NameLookup}

	book, err := e.looker.Lookup(ctx, isbn)
	switch {
	case book != nil:
		result.Record = book.Record(isbn)
		result.Details = book.Details()
		slog.Info("Lookup hit",
			"isbn", isbn,
			"source", result.Details.Source,
			"title", result.Record.Get("title"),
			"categories", result.Details.Categories,
			"description_chars", len(result.Details.Description),
			"cover", result.Details.CoverImageURL != "",
		)
	case err != nil:
		result.Err = &models.LookupError{Reason: models.ReasonTransport, Err: err}
	default:
		result.Err = &models.LookupError{Reason: models.ReasonNotFound, Err: fmt.Errorf("no match for ISBN %s", isbn)}
	}
	return result
}
