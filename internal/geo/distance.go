package geo

import (
	"github.com/golang/geo/s2"

	"memoir-api/internal/models"
)

// EarthRadiusKm is Earth's mean radius.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(a, b models.GeoPoint) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// MeanCenter returns the unweighted arithmetic mean of the given points.
// This is a planar approximation: adequate at city/country scale, skewed
// near the poles and across the antimeridian.
func MeanCenter(points []models.GeoPoint) models.GeoPoint {
	if len(points) == 0 {
		return models.GeoPoint{}
	}
	var lat, lng float64
	for _, p := range points {
		lat += p.Latitude
		lng += p.Longitude
	}
	n := float64(len(points))
	return models.GeoPoint{Latitude: lat / n, Longitude: lng / n}
}
