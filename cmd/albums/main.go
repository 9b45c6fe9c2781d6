package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"memoir-api/internal/app"
	"memoir-api/internal/config"
	"memoir-api/internal/models"
	"memoir-api/internal/services"
)

func main() {
	owners := flag.String("owners", "", "Comma-separated owner ids to generate albums for (required)")
	source := flag.String("source", "records", "Photo source: records, dir or blobs")
	dir := flag.String("dir", "", "Directory to walk when -source=dir")
	minPhotos := flag.Int("min-photos", 0, "Minimum album size (floor of 10 applies regardless)")
	levels := flag.String("levels", "", "Comma-separated boundary levels to keep (default: all)")
	limit := flag.Int("limit", 0, "Cap on photo records per owner (0 = no cap)")
	trips := flag.Bool("trips", false, "Also segment trips and log them")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *owners == "" {
		logger.Fatal("-owners is required")
	}
	if *source == "dir" && *dir == "" {
		logger.Fatal("-dir is required when -source=dir")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	svcs, err := app.InitServices(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}
	defer svcs.Close()

	// Missing geocoder credentials abort before any per-photo work.
	geocoder, err := app.NewGeocoder(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize geocoder", zap.Error(err))
	}
	clusterer := services.NewClusterService(geocoder, logger)

	opts := services.AlbumOptions{MinPhotos: *minPhotos}
	if opts.MinPhotos == 0 {
		opts.MinPhotos = cfg.AlbumMinPhotos
	}
	if *levels != "" {
		opts.Levels = strings.Split(*levels, ",")
	}

	failed := 0
	for _, owner := range strings.Split(*owners, ",") {
		owner = strings.TrimSpace(owner)
		if owner == "" {
			continue
		}

		// One owner failing must not stop the others.
		if err := runOwner(ctx, cfg, svcs, clusterer, owner, *source, *dir, *limit, *trips, opts, logger); err != nil {
			logger.Error("album run failed", zap.String("owner", owner), zap.Error(err))
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func runOwner(
	ctx context.Context,
	cfg *config.Config,
	svcs *app.Services,
	clusterer *services.ClusterService,
	owner, source, dir string,
	limit int,
	withTrips bool,
	opts services.AlbumOptions,
	logger *zap.Logger,
) error {
	var (
		entries []models.PhotoEntry
		stats   services.IngestStats
		err     error
	)

	switch source {
	case "records":
		entries, stats, err = svcs.Ingest.IngestRecords(ctx, services.RecordQuery{OwnerID: owner, Limit: limit})
	case "dir":
		entries, stats, err = svcs.Ingest.IngestDirectory(ctx, dir)
	case "blobs":
		entries, stats, err = svcs.Ingest.IngestBlobs(ctx)
	default:
		return fmt.Errorf("unknown source %q", source)
	}
	if err != nil {
		return err
	}

	clusters, withoutLocation, err := clusterer.ClusterByBoundary(ctx, entries, nil)
	if err != nil {
		return err
	}

	albums, err := svcs.Albums.GenerateForOwner(ctx, owner, clusters, opts)
	if err != nil {
		return err
	}

	summary := services.RunSummary{
		TotalPhotos:    stats.Processed,
		WithGPS:        stats.WithGPS,
		LocationsFound: clusters.Size(),
		AlbumsCreated:  len(albums),
	}
	logger.Info("run summary",
		zap.String("owner", owner),
		zap.Int("totalPhotos", summary.TotalPhotos),
		zap.Int("withGPS", summary.WithGPS),
		zap.Int("locationsFound", summary.LocationsFound),
		zap.Int("albumsCreated", summary.AlbumsCreated),
		zap.Int("withoutLocation", len(withoutLocation)),
		zap.Int("skipped", stats.Skipped))

	if withTrips {
		tripList := services.SegmentTrips(entries, services.TripOptions{
			GapHours:      cfg.TripGapHours,
			MaxDistanceKm: cfg.TripMaxDistanceKm,
			MinPhotos:     cfg.TripMinPhotos,
		})
		for i, trip := range tripList {
			logger.Info("trip",
				zap.Int("index", i),
				zap.Time("start", trip.Start),
				zap.Time("end", trip.End),
				zap.Int("photos", len(trip.Photos)),
				zap.Float64("centerLat", trip.ApproxCenter.Latitude),
				zap.Float64("centerLng", trip.ApproxCenter.Longitude))
		}
	}

	return nil
}
