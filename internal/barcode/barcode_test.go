package barcode

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeEAN13(t *testing.T) {
	matrix, err := oned.NewEAN13Writer().Encode("9780134685991", gozxing.BarcodeFormat_EAN_13, 400, 120, nil)
	if err != nil {
		t.Fatalf("failed to render barcode: %v", err)
	}

	matches, err := NewReader().Decode(context.Background(), encodePNG(t, matrix))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches[0].Format != FormatEAN13 {
		t.Errorf("expected EAN-13 first, got %s", matches[0].Format)
	}
	if got := ToISBN(matches[0]); got != "9780134685991" {
		t.Errorf("ToISBN() = %s", got)
	}
}

func TestDecodeBlankImage(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 200, 100))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}

	_, err := NewReader().Decode(context.Background(), encodePNG(t, blank))
	if !errors.Is(err, ErrNoBarcode) {
		t.Errorf("expected ErrNoBarcode, got %v", err)
	}
}

func TestDecodeNotAnImage(t *testing.T) {
	_, err := NewReader().Decode(context.Background(), []byte("definitely not an image"))
	if err == nil || errors.Is(err, ErrNoBarcode) {
		t.Errorf("expected image decode error, got %v", err)
	}
}

func TestToISBN(t *testing.T) {
	tests := []struct {
		match Match
		want  string
	}{
		{Match{FormatEAN13, "9780134685991"}, "9780134685991"},
		{Match{FormatUPCA, "012345678905"}, "0012345678905"},
		{Match{FormatUPCA, "123"}, "123"},
	}
	for _, tt := range tests {
		if got := ToISBN(tt.match); got != tt.want {
			t.Errorf("ToISBN(%+v) = %s, want %s", tt.match, got, tt.want)
		}
	}
}
