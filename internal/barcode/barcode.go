// Package barcode finds EAN-13 and UPC-A symbols in book photos.
package barcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// ErrNoBarcode means the image decoded but held no supported symbol
var ErrNoBarcode = errors.New("no barcode found")

// Format names the symbology a value was read from
type Format string

const (
	FormatEAN13 Format = "EAN_13"
	FormatUPCA  Format = "UPC_A"
)

// Match is one decoded symbol
type Match struct {
	Format Format
	Value  string
}

// Decoder reads barcodes from encoded image bytes
type Decoder interface {
	Decode(ctx context.Context, data []byte) ([]Match, error)
}

// Reader tries EAN-13 first, then UPC-A
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// Decode returns matches in scan order; the first one is preferred
func (r *Reader) Decode(ctx context.Context, data []byte) ([]Match, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize image: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	readers := []struct {
		format Format
		reader gozxing.Reader
	}{
		{FormatEAN13, oned.NewEAN13Reader()},
		{FormatUPCA, oned.NewUPCAReader()},
	}

	var matches []Match
	seen := map[string]bool{}
	for _, rd := range readers {
		result, err := rd.reader.Decode(bmp, hints)
		if err != nil {
			slog.Debug("Barcode reader found nothing", "format", rd.format, "err", err)
			continue
		}
		value := result.GetText()
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		matches = append(matches, Match{Format: rd.format, Value: value})
	}

	if len(matches) == 0 {
		return nil, ErrNoBarcode
	}
	return matches, nil
}

// ToISBN converts a decoded value into an ISBN candidate. UPC-A values are
// widened to EAN-13 with a leading zero; anything else is returned as is.
func ToISBN(m Match) string {
	if m.Format == FormatUPCA && len(m.Value) == 12 {
		return "0" + m.Value
	}
	return m.Value
}
