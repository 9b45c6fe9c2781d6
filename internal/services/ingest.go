package services

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"memoir-api/internal/models"
	"memoir-api/internal/utils"
)

// Image file extensions accepted by the filesystem ingestor.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
	".heif": true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IngestStats summarizes one ingestion batch for observability. A single
// bad photo never fails the batch; it shows up here instead.
type IngestStats struct {
	Processed int // Entries produced
	WithGPS   int // Entries carrying coordinates
	Skipped   int // Items that could not be fetched or parsed
}

// IngestService turns photo bytes from one of three sources (directory
// tree, blob documents, record-linked URLs) into normalized photo entries.
type IngestService struct {
	records     RecordSource
	blobs       BlobSource
	fetcher     ByteFetcher
	httpClient  *http.Client
	concurrency int
	logger      *zap.Logger
}

func NewIngestService(records RecordSource, blobs BlobSource, fetcher ByteFetcher, concurrency int, logger *zap.Logger) *IngestService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &IngestService{
		records:     records,
		blobs:       blobs,
		fetcher:     fetcher,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		concurrency: concurrency,
		logger:      logger,
	}
}

// IngestDirectory recursively walks a directory tree and extracts capture
// metadata from every file whose extension is on the image allow-list.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string) ([]models.PhotoEntry, IngestStats, error) {
	var entries []models.PhotoEntry
	var stats IngestStats

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read image file",
				zap.String("path", path),
				zap.Error(err))
			stats.Skipped++
			return nil
		}

		entries = append(entries, s.buildEntry(path, path, data))
		stats.Processed++
		if entries[len(entries)-1].GPS != nil {
			stats.WithGPS++
		}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	s.logIngested("directory", dir, stats)
	return entries, stats, nil
}

// IngestBlobs streams binary photo documents from the blob collection.
// Importers have stored the payload in several shapes over time; anything
// decodeBlobPayload does not recognize is skipped, not fatal.
func (s *IngestService) IngestBlobs(ctx context.Context) ([]models.PhotoEntry, IngestStats, error) {
	var entries []models.PhotoEntry
	var stats IngestStats

	blobs, err := s.blobs.Blobs(ctx)
	if err != nil {
		return nil, stats, err
	}

	for _, blob := range blobs {
		data, ok := decodeBlobPayload(blob.Payload)
		if !ok {
			s.logger.Warn("skipping blob with unrecognized payload shape",
				zap.String("blob", blob.ID))
			stats.Skipped++
			continue
		}

		entries = append(entries, s.buildEntry(blob.ID, "", data))
		stats.Processed++
		if entries[len(entries)-1].GPS != nil {
			stats.WithGPS++
		}
	}

	s.logIngested("blobs", "", stats)
	return entries, stats, nil
}

// IngestRecords queries photo records and downloads every image reference
// on every matched record. Entries built here carry the record's caption,
// free-text location, categories, owner and creation time, which enrich
// album descriptions downstream. Downloads run in parallel; a failed
// download or an image with no GPS is counted and skipped.
func (s *IngestService) IngestRecords(ctx context.Context, q RecordQuery) ([]models.PhotoEntry, IngestStats, error) {
	records, err := s.records.QueryRecords(ctx, q)
	if err != nil {
		return nil, IngestStats{}, err
	}

	var (
		mu      sync.Mutex
		entries []models.PhotoEntry
		stats   IngestStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, record := range records {
		for _, image := range record.Images {
			record, image := record, image
			g.Go(func() error {
				entry, ok := s.ingestRecordImage(gctx, record, image)

				mu.Lock()
				defer mu.Unlock()
				if !ok {
					stats.Skipped++
					return nil
				}
				entries = append(entries, entry)
				stats.Processed++
				stats.WithGPS++
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	// Download failures after cancellation are just the context dying; a
	// cancelled run must not masquerade as a clean batch with skips.
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	s.logIngested("records", q.OwnerID, stats)
	return entries, stats, nil
}

// Downloads one image reference and extracts its metadata. Returns false
// when the image could not be fetched or carries no GPS fix.
func (s *IngestService) ingestRecordImage(ctx context.Context, record models.PhotoRecord, image models.RecordImage) (models.PhotoEntry, bool) {
	data, err := s.fetchBytes(ctx, image.URL)
	if err != nil {
		s.logger.Warn("failed to download image",
			zap.String("url", image.URL),
			zap.String("record", record.ID),
			zap.Error(err))
		return models.PhotoEntry{}, false
	}

	sourceRef := record.ID + ":" + image.URL
	meta := utils.ExtractCaptureMetadata(data, sourceRef, s.logger)
	if meta == nil || meta.GPS == nil {
		return models.PhotoEntry{}, false
	}

	entry := models.PhotoEntry{
		SourceRef:   sourceRef,
		URL:         image.URL,
		CapturedAt:  meta.CapturedAt,
		CameraModel: meta.CameraModel,
		GPS:         meta.GPS,
		OwnerID:     record.OwnerID,
		Caption:     record.Caption,
		Location:    record.Location,
		Categories:  record.Categories,
		CreatedAt:   record.CreatedAt,
	}

	s.logger.Info("ingested record image",
		zap.String("record", record.ID),
		zap.String("gps", fmt.Sprintf("%.3f,%.3f", meta.GPS.Latitude, meta.GPS.Longitude)))

	return entry, true
}

// fetchBytes resolves an image reference: http(s) URLs over the wire,
// everything else as a storage object path.
func (s *IngestService) fetchBytes(ctx context.Context, ref string) ([]byte, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		if s.fetcher == nil {
			return nil, fmt.Errorf("no storage fetcher configured for %q", ref)
		}
		return s.fetcher.FetchFile(ctx, ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (s *IngestService) buildEntry(sourceRef, url string, data []byte) models.PhotoEntry {
	entry := models.PhotoEntry{SourceRef: sourceRef, URL: url}

	// A nil result means metadata unavailable; the entry is still carried
	// forward so callers can report extraction coverage.
	if meta := utils.ExtractCaptureMetadata(data, sourceRef, s.logger); meta != nil {
		entry.CapturedAt = meta.CapturedAt
		entry.CameraModel = meta.CameraModel
		entry.GPS = meta.GPS
	}

	return entry
}

func (s *IngestService) logIngested(source, label string, stats IngestStats) {
	s.logger.Info("ingestion batch complete",
		zap.String("source", source),
		zap.String("label", label),
		zap.Int("processed", stats.Processed),
		zap.Int("withGPS", stats.WithGPS),
		zap.Int("skipped", stats.Skipped))
}

// decodeBlobPayload normalizes the heterogeneous binary representations
// found in blob documents to a single byte slice:
//   - raw bytes
//   - a wrapper map holding the bytes under "bytes" or "data"
//   - a numeric array, one byte per element
func decodeBlobPayload(payload interface{}) ([]byte, bool) {
	switch v := payload.(type) {
	case []byte:
		return v, len(v) > 0
	case map[string]interface{}:
		if inner, ok := v["bytes"]; ok {
			return decodeBlobPayload(inner)
		}
		if inner, ok := v["data"]; ok {
			return decodeBlobPayload(inner)
		}
		return nil, false
	case []interface{}:
		data := make([]byte, 0, len(v))
		for _, elem := range v {
			switch n := elem.(type) {
			case int64:
				data = append(data, byte(n))
			case float64:
				data = append(data, byte(int64(n)))
			default:
				return nil, false
			}
		}
		return data, len(data) > 0
	default:
		return nil, false
	}
}
