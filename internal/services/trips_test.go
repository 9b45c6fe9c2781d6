package services

import (
	"testing"
	"time"

	"memoir-api/internal/models"
)

func gpsEntry(ref string, at time.Time, lat, lng float64) models.PhotoEntry {
	t := at
	return models.PhotoEntry{
		SourceRef:  ref,
		CapturedAt: &t,
		GPS:        &models.GeoPoint{Latitude: lat, Longitude: lng},
	}
}

func TestSegmentTripsTimeGap(t *testing.T) {
	base := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	// T, T+1h, T+72h, T+73h at the same coordinate: a 48h gap threshold
	// must split this into exactly two trips.
	entries := []models.PhotoEntry{
		gpsEntry("a", base, 48.85, 2.35),
		gpsEntry("b", base.Add(1*time.Hour), 48.85, 2.35),
		gpsEntry("c", base.Add(72*time.Hour), 48.85, 2.35),
		gpsEntry("d", base.Add(73*time.Hour), 48.85, 2.35),
	}

	trips := SegmentTrips(entries, TripOptions{GapHours: 48, MinPhotos: 2})

	if len(trips) != 2 {
		t.Fatalf("SegmentTrips() produced %d trips, want 2", len(trips))
	}
	if len(trips[0].Photos) != 2 || len(trips[1].Photos) != 2 {
		t.Errorf("trip sizes = %d, %d; want 2, 2", len(trips[0].Photos), len(trips[1].Photos))
	}
	if !trips[0].Start.Equal(base) || !trips[0].End.Equal(base.Add(1*time.Hour)) {
		t.Errorf("first trip bounds = [%v, %v]", trips[0].Start, trips[0].End)
	}
	if !trips[1].Start.Equal(base.Add(72*time.Hour)) || !trips[1].End.Equal(base.Add(73*time.Hour)) {
		t.Errorf("second trip bounds = [%v, %v]", trips[1].Start, trips[1].End)
	}
}

func TestSegmentTripsDistanceGap(t *testing.T) {
	base := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	// Entries minutes apart but hundreds of km from each other: every
	// entry becomes its own trip, and all fall below the size filter.
	entries := []models.PhotoEntry{
		gpsEntry("a", base, 48.85, 2.35),
		gpsEntry("b", base.Add(10*time.Minute), 52.52, 13.40), // Berlin, ~880 km away
		gpsEntry("c", base.Add(20*time.Minute), 41.90, 12.50), // Rome
	}

	trips := SegmentTrips(entries, TripOptions{MaxDistanceKm: 100, MinPhotos: 2})

	if len(trips) != 0 {
		t.Fatalf("SegmentTrips() produced %d trips, want 0 after size filter", len(trips))
	}
}

func TestSegmentTripsMinPhotos(t *testing.T) {
	base := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.PhotoEntry{
		gpsEntry("a", base, 48.85, 2.35),
		gpsEntry("b", base.Add(time.Hour), 48.86, 2.36),
	}

	// Default MinPhotos is 3
	if trips := SegmentTrips(entries, TripOptions{}); len(trips) != 0 {
		t.Errorf("SegmentTrips() = %d trips, want 0 below default minimum", len(trips))
	}
}

func TestSegmentTripsCenterAndOrder(t *testing.T) {
	base := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	// Deliberately unsorted input
	entries := []models.PhotoEntry{
		gpsEntry("c", base.Add(2*time.Hour), 30, 30),
		gpsEntry("a", base, 10, 10),
		gpsEntry("b", base.Add(1*time.Hour), 20, 20),
	}

	trips := SegmentTrips(entries, TripOptions{MaxDistanceKm: 1e6, MinPhotos: 3})

	if len(trips) != 1 {
		t.Fatalf("SegmentTrips() produced %d trips, want 1", len(trips))
	}
	trip := trips[0]

	if trip.Photos[0].SourceRef != "a" || trip.Photos[2].SourceRef != "c" {
		t.Errorf("photos not in capture order: %s, %s, %s",
			trip.Photos[0].SourceRef, trip.Photos[1].SourceRef, trip.Photos[2].SourceRef)
	}
	if trip.ApproxCenter.Latitude != 20 || trip.ApproxCenter.Longitude != 20 {
		t.Errorf("ApproxCenter = %+v, want {20 20}", trip.ApproxCenter)
	}
}

func TestSegmentTripsSkipsEntriesWithoutGPSOrTime(t *testing.T) {
	base := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	noGPS := models.PhotoEntry{SourceRef: "x", CapturedAt: &base}
	noTime := models.PhotoEntry{SourceRef: "y", GPS: &models.GeoPoint{Latitude: 1, Longitude: 1}}

	entries := []models.PhotoEntry{
		noGPS,
		noTime,
		gpsEntry("a", base, 10, 10),
		gpsEntry("b", base.Add(time.Hour), 10, 10),
	}

	trips := SegmentTrips(entries, TripOptions{MinPhotos: 2})

	if len(trips) != 1 || len(trips[0].Photos) != 2 {
		t.Fatalf("expected one trip with the two eligible entries, got %+v", trips)
	}
}
