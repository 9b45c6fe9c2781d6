package services

import (
	"context"

	"go.uber.org/zap"

	"memoir-api/internal/models"
)

// ClusterMap accumulates boundary clusters across ingestion batches,
// keyed level -> boundaryId. It is an explicit value threaded through
// calls so separate runs never leak into each other.
type ClusterMap map[string]map[string]*models.BoundaryCluster

func NewClusterMap() ClusterMap {
	return make(ClusterMap)
}

// Upsert appends the entry to the cluster for (boundary.Level, boundary.ID),
// creating the cluster on first sight. An entry (by SourceRef) lands in a
// given cluster at most once, so re-clustering the same batch is harmless.
func (m ClusterMap) Upsert(boundary models.Boundary, entry models.PhotoEntry) {
	byID, ok := m[boundary.Level]
	if !ok {
		byID = make(map[string]*models.BoundaryCluster)
		m[boundary.Level] = byID
	}

	cluster, ok := byID[boundary.ID]
	if !ok {
		cluster = &models.BoundaryCluster{
			Level:       boundary.Level,
			BoundaryID:  boundary.ID,
			Name:        boundary.Name,
			Code:        boundary.Code,
			Description: boundary.Description,
		}
		byID[boundary.ID] = cluster
	}

	for _, existing := range cluster.Entries {
		if existing.SourceRef == entry.SourceRef {
			return
		}
	}
	cluster.Entries = append(cluster.Entries, entry)
}

// Size returns the total number of clusters across all levels.
func (m ClusterMap) Size() int {
	n := 0
	for _, byID := range m {
		n += len(byID)
	}
	return n
}

// ClusterService groups photo entries into per-level, per-boundary clusters
// using the reverse geocoder.
type ClusterService struct {
	geocoder Geocoder
	logger   *zap.Logger
}

func NewClusterService(geocoder Geocoder, logger *zap.Logger) *ClusterService {
	return &ClusterService{geocoder: geocoder, logger: logger}
}

// ClusterByBoundary geocodes every GPS-bearing entry once and upserts it
// into a cluster per returned boundary. Entries without GPS, and entries
// whose geocode call failed, are returned separately so callers can report
// extraction coverage; one failed geocode never aborts the batch.
//
// Pass an existing map to extend it across batches, or nil to start fresh.
func (s *ClusterService) ClusterByBoundary(ctx context.Context, entries []models.PhotoEntry, existing ClusterMap) (ClusterMap, []models.PhotoEntry, error) {
	clusters := existing
	if clusters == nil {
		clusters = NewClusterMap()
	}

	var withoutLocation []models.PhotoEntry

	for _, entry := range entries {
		if entry.GPS == nil {
			withoutLocation = append(withoutLocation, entry)
			continue
		}

		boundaries, err := s.geocoder.ReverseGeocode(ctx, *entry.GPS)
		if err != nil {
			// The batch outlives individual geocode failures, but not a
			// cancelled run.
			if ctx.Err() != nil {
				return clusters, withoutLocation, ctx.Err()
			}
			s.logger.Warn("reverse geocode failed, treating entry as unmatched",
				zap.String("entry", entry.SourceRef),
				zap.Error(err))
			withoutLocation = append(withoutLocation, entry)
			continue
		}

		if len(boundaries) == 0 {
			withoutLocation = append(withoutLocation, entry)
			continue
		}

		for _, boundary := range boundaries {
			clusters.Upsert(boundary, entry)
		}
	}

	s.logger.Info("boundary clustering complete",
		zap.Int("entries", len(entries)),
		zap.Int("clusters", clusters.Size()),
		zap.Int("withoutLocation", len(withoutLocation)))

	return clusters, withoutLocation, nil
}
