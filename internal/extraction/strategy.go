// Package extraction holds the interchangeable strategies that turn book
// photos into partial metadata records.
package extraction

import (
	"context"
	"slices"

	"github.com/aob-scanner/book-scanner/internal/models"
)

// Strategy names, also used as metric labels
const (
	NameGenerative = "generative"
	NameOCR        = "ocr"
	NameBarcode    = "barcode"
	NameLookup     = "lookup"
)

// Input is what every strategy sees: the decoded images, primary first,
// and the caller's scan hint.
type Input struct {
	Images   []models.ImagePayload
	ScanType models.ScanType
}

// Strategy produces a partial record from the images. Failures are reported
// in ExtractionResult.Err, never by panicking or aborting siblings.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, in Input) models.ExtractionResult
}

// OrderSeeds puts the seed strategy that best matches the scan hint first.
// The hint only reorders; every seed still runs.
func OrderSeeds(seeds []Strategy, hint models.ScanType) []Strategy {
	preferred := ""
	switch hint {
	case models.ScanTypeBarcode:
		preferred = NameBarcode
	case models.ScanTypeCover:
		preferred = NameOCR
	}

	ordered := slices.Clone(seeds)
	if preferred == "" {
		return ordered
	}
	slices.SortStableFunc(ordered, func(a, b Strategy) int {
		switch {
		case a.Name() == preferred && b.Name() != preferred:
			return -1
		case b.Name() == preferred && a.Name() != preferred:
			return 1
		}
		return 0
	})
	return ordered
}
