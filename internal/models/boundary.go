package models

import "time"

// Boundary is one named administrative area returned by reverse geocoding
// (city, region, country, ...). Level is the service's numeric admin level
// coerced to a string; "unknown" when the service did not provide one.
type Boundary struct {
	Level       string
	ID          string
	Name        string
	Code        string
	Description string
}

// BoundaryCluster accumulates the photo entries geocoded into one
// (level, boundaryId) pair. An entry appears at most once per cluster but
// may appear in sibling clusters at other levels.
type BoundaryCluster struct {
	Level       string
	BoundaryID  string
	Name        string
	Code        string
	Description string
	Entries     []PhotoEntry
}

// Trip is a contiguous run of GPS and timestamp bearing entries that stay
// within the configured time-gap and distance thresholds.
type Trip struct {
	Start  time.Time
	End    time.Time
	Photos []PhotoEntry

	// ApproxCenter is the unweighted mean of member coordinates. Good
	// enough at city/country scale; wrong for trips crossing the
	// antimeridian or hugging a pole.
	ApproxCenter GeoPoint
}
