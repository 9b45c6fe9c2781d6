package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"memoir-api/internal/models"
	"memoir-api/internal/utils"
)

// AlbumMinPhotosFloor is the hard minimum album size. Callers may raise the
// threshold but never lower it below this.
const AlbumMinPhotosFloor = 10

// Rank assigned to non-numeric boundary levels during dedup: they win a
// dedup fight only when no numeric-level duplicate exists.
const unknownLevelRank = 1 << 30

// AlbumOptions tunes album generation.
type AlbumOptions struct {
	MinPhotos int      // Effective floor is max(MinPhotos, AlbumMinPhotosFloor)
	Levels    []string // Optional allow-list of boundary levels; empty keeps all
}

// RunSummary is what a batch caller gets back instead of raw errors for
// expected outcomes.
type RunSummary struct {
	TotalPhotos    int
	WithGPS        int
	LocationsFound int
	AlbumsCreated  int
}

// AlbumService turns boundary clusters into persisted albums.
type AlbumService struct {
	store  CollectionStore
	logger *zap.Logger
}

func NewAlbumService(store CollectionStore, logger *zap.Logger) *AlbumService {
	return &AlbumService{store: store, logger: logger}
}

// BuildAlbums converts a cluster map into finalized album values:
// threshold filter, date-range formatting, cross-level dedup, re-filter,
// display sort. Pure; persistence is GenerateForOwner's job.
func BuildAlbums(clusters ClusterMap, opts AlbumOptions) []models.Album {
	minPhotos := opts.MinPhotos
	if minPhotos < AlbumMinPhotosFloor {
		minPhotos = AlbumMinPhotosFloor
	}

	var allowed map[string]bool
	if len(opts.Levels) > 0 {
		allowed = make(map[string]bool, len(opts.Levels))
		for _, l := range opts.Levels {
			allowed[l] = true
		}
	}

	var candidates []models.Album
	for level, byID := range clusters {
		if allowed != nil && !allowed[level] {
			continue
		}
		for _, cluster := range byID {
			if len(cluster.Entries) < minPhotos {
				continue
			}
			candidates = append(candidates, albumFromCluster(cluster))
		}
	}

	candidates = dedupAlbums(candidates)

	// A finer-level dedup winner might expose a smaller effective set;
	// guard against regressions below the floor.
	kept := candidates[:0]
	for _, album := range candidates {
		if album.PhotoCount >= minPhotos {
			kept = append(kept, album)
		}
	}

	// Display order: most photos first. Boundary id breaks ties so repeat
	// runs produce the same order.
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].PhotoCount != kept[j].PhotoCount {
			return kept[i].PhotoCount > kept[j].PhotoCount
		}
		return kept[i].BoundaryID < kept[j].BoundaryID
	})

	return kept
}

func albumFromCluster(cluster *models.BoundaryCluster) models.Album {
	var timestamps []time.Time
	photos := make([]models.AlbumPhoto, 0, len(cluster.Entries))

	for _, entry := range cluster.Entries {
		if entry.CapturedAt != nil {
			timestamps = append(timestamps, *entry.CapturedAt)
		}
		photos = append(photos, models.AlbumPhoto{
			URL:         photoURL(entry),
			Caption:     entry.Caption,
			Location:    entry.Location,
			Coordinates: entry.GPS,
			Timestamp:   entry.CapturedAt,
		})
	}

	summary := cluster.Description
	if summary == "" {
		summary = fmt.Sprintf("%d photos from %s", len(photos), cluster.Name)
	}

	return models.Album{
		BoundaryID: cluster.BoundaryID,
		Level:      cluster.Level,
		Title:      cluster.Name,
		Summary:    summary,
		CoverImage: photoURL(cluster.Entries[0]),
		PhotoCount: len(photos),
		DateRange:  utils.FormatDateRange(timestamps),
		Photos:     photos,
	}
}

func photoURL(entry models.PhotoEntry) string {
	if entry.URL != "" {
		return entry.URL
	}
	return entry.SourceRef
}

// dedupAlbums collapses candidates whose member photo-URL sets are
// identical. The same physical place is geocoded at every administrative
// level, so a city album and its region/country twins all carry the same
// photos; only the finest-grained one (lowest numeric level) survives.
func dedupAlbums(candidates []models.Album) []models.Album {
	winners := make(map[string]models.Album)
	var order []string

	for _, album := range candidates {
		key := photoSetKey(album.Photos)
		current, seen := winners[key]
		if !seen {
			winners[key] = album
			order = append(order, key)
			continue
		}
		if levelRank(album.Level) < levelRank(current.Level) {
			winners[key] = album
		}
	}

	result := make([]models.Album, 0, len(order))
	for _, key := range order {
		result = append(result, winners[key])
	}
	return result
}

// photoSetKey is an order-independent fingerprint of an album's member URLs.
func photoSetKey(photos []models.AlbumPhoto) string {
	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		urls = append(urls, p.URL)
	}
	sort.Strings(urls)
	return strings.Join(urls, "\x00")
}

func levelRank(level string) int {
	if n, err := strconv.Atoi(level); err == nil {
		return n
	}
	return unknownLevelRank
}

// GenerateForOwner builds the final album set for one owner and replaces
// everything previously persisted under that owner. Re-running with the
// same inputs produces the same set.
func (s *AlbumService) GenerateForOwner(ctx context.Context, ownerID string, clusters ClusterMap, opts AlbumOptions) ([]models.Album, error) {
	albums := BuildAlbums(clusters, opts)

	now := time.Now()
	for i := range albums {
		albums[i].ID = uuid.NewString()
		albums[i].OwnerID = ownerID
		albums[i].CreatedAt = now
	}

	if err := s.store.ReplaceAlbums(ctx, ownerID, albums); err != nil {
		return nil, fmt.Errorf("failed to persist albums for %s: %w", ownerID, err)
	}

	s.logger.Info("album generation complete",
		zap.String("owner", ownerID),
		zap.Int("albums", len(albums)))

	return albums, nil
}
