package extraction

import (
	"context"
	"errors"

	"github.com/aob-scanner/book-scanner/internal/barcode"
	"github.com/aob-scanner/book-scanner/internal/models"
)

// Barcode decodes an EAN-13 or UPC-A symbol and offers it as the ISBN
type Barcode struct {
	dec barcode.Decoder
}

func NewBarcode(dec barcode.Decoder) *Barcode {
	return &Barcode{dec: dec}
}

func (b *Barcode) Name() string { return NameBarcode }

func (b *Barcode) Extract(ctx context.Context, in Input) models.ExtractionResult {
	result := models.ExtractionResult{Strategy: NameBarcode}
	var lastErr error
	for _, img := range in.Images {
		matches, err := b.dec.Decode(ctx, img.Data)
		if err != nil {
			lastErr = err
			continue
		}
		result.Record.Set("isbn", barcode.ToISBN(matches[0]))
		return result
	}

	if lastErr == nil || errors.Is(lastErr, barcode.ErrNoBarcode) {
		result.Err = &models.LookupError{Reason: models.ReasonNoBarcode, Err: barcode.ErrNoBarcode}
	} else {
		result.Err = &models.LookupError{Reason: models.ReasonNoBarcode, Err: lastErr}
	}
	return result
}
