package models

import "time"

// AlbumPhoto is one member of a persisted album.
type AlbumPhoto struct {
	URL         string     `firestore:"url" json:"url"`
	Caption     string     `firestore:"caption,omitempty" json:"caption,omitempty"`
	Location    string     `firestore:"location,omitempty" json:"location,omitempty"`
	Coordinates *GeoPoint  `firestore:"coordinates,omitempty" json:"coordinates,omitempty"`
	Timestamp   *time.Time `firestore:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// Album is a finalized, persisted grouping of one owner's photos sharing an
// administrative boundary. Exactly one album exists per (owner, boundaryId)
// after a generation run; runs replace, never merge.
type Album struct {
	ID         string       `firestore:"id,omitempty" json:"id"`
	OwnerID    string       `firestore:"userId" json:"userId"`
	BoundaryID string       `firestore:"boundaryId" json:"boundaryId"`
	Level      string       `firestore:"level" json:"level"`
	Title      string       `firestore:"title" json:"title"`
	Summary    string       `firestore:"summary,omitempty" json:"summary,omitempty"`
	CoverImage string       `firestore:"coverImage,omitempty" json:"coverImage,omitempty"`
	PhotoCount int          `firestore:"photoCount" json:"photoCount"`
	DateRange  string       `firestore:"dateRange" json:"dateRange"`
	Photos     []AlbumPhoto `firestore:"photos" json:"photos"`
	CreatedAt  time.Time    `firestore:"createdAt" json:"createdAt"`
}

// Scrapbook is an incrementally maintained, threshold-gated collection of
// photo record ids, keyed by (owner, title). Posts is a membership set:
// a record id appears at most once.
type Scrapbook struct {
	ID          string    `firestore:"id,omitempty" json:"id"`
	OwnerID     string    `firestore:"userId" json:"userId"`
	Title       string    `firestore:"title" json:"title"`
	Description string    `firestore:"description,omitempty" json:"description,omitempty"`
	CoverImage  string    `firestore:"coverImage,omitempty" json:"coverImage,omitempty"`
	Posts       []string  `firestore:"posts" json:"posts"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// HasPost reports whether the scrapbook already references the record id.
func (s *Scrapbook) HasPost(postID string) bool {
	for _, p := range s.Posts {
		if p == postID {
			return true
		}
	}
	return false
}
