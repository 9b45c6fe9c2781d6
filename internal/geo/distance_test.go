package geo

import (
	"math"
	"testing"

	"memoir-api/internal/models"
)

func TestHaversineKm(t *testing.T) {
	paris := models.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}
	london := models.GeoPoint{Latitude: 51.5074, Longitude: -0.1278}
	sydney := models.GeoPoint{Latitude: -33.8688, Longitude: 151.2093}

	tests := []struct {
		name      string
		a, b      models.GeoPoint
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point is zero",
			a:         paris,
			b:         paris,
			wantKm:    0,
			tolerance: 1e-9,
		},
		{
			name:      "Paris to London",
			a:         paris,
			b:         london,
			wantKm:    344,
			tolerance: 5,
		},
		{
			name:      "Paris to Sydney",
			a:         paris,
			b:         sydney,
			wantKm:    16960,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm() = %.2f, want %.2f ± %.2f", got, tt.wantKm, tt.tolerance)
			}

			// Distance must be symmetric
			reverse := HaversineKm(tt.b, tt.a)
			if math.Abs(got-reverse) > 1e-9 {
				t.Errorf("HaversineKm() not symmetric: %.9f vs %.9f", got, reverse)
			}
		})
	}
}

func TestMeanCenter(t *testing.T) {
	tests := []struct {
		name   string
		points []models.GeoPoint
		want   models.GeoPoint
	}{
		{
			name:   "no points",
			points: nil,
			want:   models.GeoPoint{},
		},
		{
			name:   "single point",
			points: []models.GeoPoint{{Latitude: 10, Longitude: 20}},
			want:   models.GeoPoint{Latitude: 10, Longitude: 20},
		},
		{
			name: "two points average",
			points: []models.GeoPoint{
				{Latitude: 10, Longitude: 20},
				{Latitude: 30, Longitude: 40},
			},
			want: models.GeoPoint{Latitude: 20, Longitude: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanCenter(tt.points)
			if math.Abs(got.Latitude-tt.want.Latitude) > 1e-9 ||
				math.Abs(got.Longitude-tt.want.Longitude) > 1e-9 {
				t.Errorf("MeanCenter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
