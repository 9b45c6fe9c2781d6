package services

import (
	"sort"

	"memoir-api/internal/geo"
	"memoir-api/internal/models"
)

// TripOptions tunes trip segmentation. Zero values fall back to defaults.
type TripOptions struct {
	GapHours      float64 // Close a trip after this many hours of silence (default 48)
	MaxDistanceKm float64 // Close a trip after a jump longer than this (default 100)
	MinPhotos     int     // Discard trips with fewer photos (default 3)
}

func (o TripOptions) withDefaults() TripOptions {
	if o.GapHours <= 0 {
		o.GapHours = 48
	}
	if o.MaxDistanceKm <= 0 {
		o.MaxDistanceKm = 100
	}
	if o.MinPhotos <= 0 {
		o.MinPhotos = 3
	}
	return o
}

// SegmentTrips groups GPS and timestamp bearing entries into contiguous
// trips. Entries are walked in capture order; crossing either the time-gap
// or the distance threshold between adjacent entries starts a new trip.
// Boundary geocoding plays no part here.
func SegmentTrips(entries []models.PhotoEntry, opts TripOptions) []models.Trip {
	opts = opts.withDefaults()

	eligible := make([]models.PhotoEntry, 0, len(entries))
	for _, e := range entries {
		if e.GPS != nil && e.CapturedAt != nil {
			eligible = append(eligible, e)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].CapturedAt.Before(*eligible[j].CapturedAt)
	})

	var trips []models.Trip

	current := newTrip(eligible[0])
	lastCoord := *eligible[0].GPS

	for _, entry := range eligible[1:] {
		hourGap := entry.CapturedAt.Sub(current.End).Hours()
		distanceKm := geo.HaversineKm(lastCoord, *entry.GPS)

		if hourGap > opts.GapHours || distanceKm > opts.MaxDistanceKm {
			trips = append(trips, current)
			current = newTrip(entry)
		} else {
			current.Photos = append(current.Photos, entry)
			// Ties can arrive out of order; the end never moves backwards.
			if entry.CapturedAt.After(current.End) {
				current.End = *entry.CapturedAt
			}
		}
		lastCoord = *entry.GPS
	}
	trips = append(trips, current)

	kept := trips[:0]
	for _, trip := range trips {
		if len(trip.Photos) < opts.MinPhotos {
			continue
		}
		trip.ApproxCenter = tripCenter(trip.Photos)
		kept = append(kept, trip)
	}

	return kept
}

func newTrip(first models.PhotoEntry) models.Trip {
	return models.Trip{
		Start:  *first.CapturedAt,
		End:    *first.CapturedAt,
		Photos: []models.PhotoEntry{first},
	}
}

func tripCenter(photos []models.PhotoEntry) models.GeoPoint {
	points := make([]models.GeoPoint, 0, len(photos))
	for _, p := range photos {
		points = append(points, *p.GPS)
	}
	return geo.MeanCenter(points)
}
