package models

import "time"

// GeoPoint is a WGS84 coordinate pair in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `firestore:"latitude" json:"latitude"`
	Longitude float64 `firestore:"longitude" json:"longitude"`
}

// CaptureMetadata is what the EXIF extractor could recover from one image.
// Any of the fields may be absent; a nil *CaptureMetadata means nothing was
// recoverable at all.
type CaptureMetadata struct {
	CapturedAt  *time.Time
	CameraModel string
	GPS         *GeoPoint
}

// PhotoEntry is one observation of a photo's spatial/temporal metadata.
// It is created once per ingestion run, never mutated, and never persisted;
// clustering and trip segmentation consume it and throw it away.
type PhotoEntry struct {
	// SourceRef points back at the original photo: a file path, a blob
	// document id, or "<recordID>:<url>" for record-linked entries.
	SourceRef   string
	URL         string
	CapturedAt  *time.Time
	CameraModel string
	GPS         *GeoPoint

	// Populated only when the entry was built from a photo record.
	OwnerID    string
	Caption    string
	Location   string
	Categories []string
	CreatedAt  time.Time
}

// RecordImage is one image reference on a photo record.
type RecordImage struct {
	URL   string `firestore:"url" json:"url"`
	Order int    `firestore:"order" json:"order"`
}

// PhotoRecord is the subset of a post document that this pipeline reads.
// The full record (auth fields, comment bodies and so on) belongs to the
// document-store CRUD layer, which is outside this codebase.
type PhotoRecord struct {
	ID         string        `firestore:"id,omitempty" json:"id"`
	OwnerID    string        `firestore:"userId" json:"userId"`
	Caption    string        `firestore:"caption,omitempty" json:"caption,omitempty"`
	Location   string        `firestore:"location,omitempty" json:"location,omitempty"`
	Categories []string      `firestore:"categories,omitempty" json:"categories,omitempty"`
	Images     []RecordImage `firestore:"images" json:"images"`
	Likes      int           `firestore:"likes,omitempty" json:"likes,omitempty"`
	Comments   int           `firestore:"comments,omitempty" json:"comments,omitempty"`
	CreatedAt  time.Time     `firestore:"createdAt" json:"createdAt"`
}

// FirstImageURL returns the URL of the record's lowest-order image, or ""
// when the record has no images.
func (r *PhotoRecord) FirstImageURL() string {
	if len(r.Images) == 0 {
		return ""
	}
	first := r.Images[0]
	for _, img := range r.Images[1:] {
		if img.Order < first.Order {
			first = img
		}
	}
	return first.URL
}

// HasCategory reports whether the record carries the given category.
func (r *PhotoRecord) HasCategory(category string) bool {
	for _, c := range r.Categories {
		if c == category {
			return true
		}
	}
	return false
}
