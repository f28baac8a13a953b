package dataset

import (
	"path/filepath"

	"github.com/aob-scanner/book-scanner/internal/models"
)

// Record is one labelled example: up to two photos of a book and the
// metadata a cataloguer recorded for it.
type Record struct {
	ID       string   `json:"id" parquet:"id"`
	Images   []string `json:"images" parquet:"images,list"` // paths relative to the dataset file
	ScanType string   `json:"scan_type,omitempty" parquet:"scan_type,optional"`
	Expected Expected `json:"expected" parquet:"expected"`
}

// Expected is the ground truth for the fields a photo can reveal
type Expected struct {
	Title       string `json:"title" parquet:"title,optional"`
	Author      string `json:"author" parquet:"author,optional"`
	ISBN        string `json:"isbn" parquet:"isbn,optional"`
	Publisher   string `json:"publisher" parquet:"publisher,optional"`
	ReleaseDate string `json:"release_date" parquet:"release_date,optional"`
	Language    string `json:"language" parquet:"language,optional"`
	Edition     string `json:"edition" parquet:"edition,optional"`
}

// MetadataRecord converts the ground truth into the canonical schema
func (e Expected) MetadataRecord() models.MetadataRecord {
	var r models.MetadataRecord
	r.Set("title", e.Title)
	r.Set("author", e.Author)
	r.Set("isbn", e.ISBN)
	r.Set("publisher", e.Publisher)
	r.Set("release_date", e.ReleaseDate)
	r.Set("language", e.Language)
	r.Set("edition", e.Edition)
	return r
}

// ImagePaths resolves the record's images against the dataset directory.
// At most two are returned.
func (r *Record) ImagePaths(baseDir string) []string {
	paths := make([]string, 0, 2)
	for _, img := range r.Images {
		if img == "" {
			continue
		}
		if !filepath.IsAbs(img) {
			img = filepath.Join(baseDir, img)
		}
		paths = append(paths, img)
		if len(paths) == 2 {
			break
		}
	}
	return paths
}
