package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/aob-scanner/book-scanner/internal/models"
	"github.com/aob-scanner/book-scanner/internal/ocr"
)

var errNoISBNInText = errors.New("no ISBN in recognized text")

// Heuristic runs text recognition and the line rules in ocr.ParseText.
// It fills title, author and isbn only.
type Heuristic struct {
	rec ocr.Recognizer
}

func NewHeuristic(rec ocr.Recognizer) *Heuristic {
	return &Heuristic{rec: rec}
}

func (h *Heuristic) Name() string { return NameOCR }

// Extract tries each image in order and keeps the first parse that found an
// ISBN, falling back to the first non-empty one.
func (h *Heuristic) Extract(ctx context.Context, in Input) models.ExtractionResult {
	result := models.ExtractionResult{Strategy: NameOCR}
	var (
		best    *ocr.Parsed
		lastErr error
	)
	for _, img := range in.Images {
		text, err := h.rec.RecognizeText(ctx, img)
		if err != nil {
			lastErr = fmt.Errorf("image %d: %w", img.Ordinal, err)
			continue
		}
		parsed := ocr.ParseText(text)
		if parsed.ISBN != "" {
			best = &parsed
			break
		}
		if best == nil && (parsed.Title != "" || parsed.Author != "") {
			best = &parsed
		}
	}

	if best != nil {
		result.Record.Set("title", best.Title)
		result.Record.Set("author", best.Author)
		result.Record.Set("isbn", best.ISBN)
	}

	switch {
	case best != nil && best.ISBN != "":
	case lastErr != nil && best == nil:
		result.Err = &models.LookupError{Reason: models.ReasonTransport, Err: lastErr}
	default:
		result.Err = &models.LookupError{Reason: models.ReasonNoIdentifier, Err: errNoISBNInText}
	}
	return result
}
