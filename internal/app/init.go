package app

import (
	"context"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"memoir-api/internal/config"
	"memoir-api/internal/services"
)

// Services holds all initialized services shared by the batch CLIs.
type Services struct {
	Records     *services.FirestoreRecordSource
	Blobs       *services.FirestoreBlobSource
	Storage     *services.StorageService
	Collections *services.FirestoreCollectionStore
	Ingest      *services.IngestService
	Albums      *services.AlbumService
	Scrapbooks  *services.ScrapbookService

	firestoreClient *firestore.Client
	storageClient   *storage.Client
}

// InitServices initializes all application services based on configuration.
// Returns the initialized services or an error if initialization fails.
// The geocoder is not built here: only the album pipeline needs it, and its
// missing-key failure should not block scrapbook-only runs.
func InitServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	// Configure Firebase credentials
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsJSON != "" {
		// Use JSON credentials from environment variable
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
	} else {
		// Use credentials file (for local development)
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsPath))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProjectID, opts...)
	if err != nil {
		return nil, err
	}

	records := services.NewFirestoreRecordSource(firestoreClient, cfg.PostsCollection, logger)
	blobs := services.NewFirestoreBlobSource(firestoreClient, cfg.BlobsCollection)
	storageService := services.NewStorageService(storageClient, cfg.FirebaseBucketName)
	collections := services.NewFirestoreCollectionStore(firestoreClient, cfg.AlbumsCollection, cfg.ScrapbooksCollection, logger)

	return &Services{
		Records:     records,
		Blobs:       blobs,
		Storage:     storageService,
		Collections: collections,
		Ingest:      services.NewIngestService(records, blobs, storageService, cfg.DownloadConcurrency, logger),
		Albums:      services.NewAlbumService(collections, logger),
		Scrapbooks:  services.NewScrapbookService(records, collections, cfg.ScrapbookAutoUpdate, cfg.ScrapbookMinPosts, logger),

		firestoreClient: firestoreClient,
		storageClient:   storageClient,
	}, nil
}

// NewGeocoder builds the rate-limited reverse geocoder. Fails fast when the
// API key is missing; callers that need geocoding must not start without it.
func NewGeocoder(cfg *config.Config, logger *zap.Logger) (*services.GeocodingService, error) {
	return services.NewGeocodingService(services.GeocoderOptions{
		BaseURL: cfg.GeocoderBaseURL,
		APIKey:  cfg.GeocoderAPIKey,
		Timeout: cfg.GeocoderTimeout,
		RPS:     cfg.GeocoderRPS,
		Cache:   services.NewBoundaryCache(cfg.CacheTTL, cfg.CacheCleanupInterval),
	}, logger)
}

// Close releases the underlying clients.
func (s *Services) Close() {
	if s.firestoreClient != nil {
		s.firestoreClient.Close()
	}
	if s.storageClient != nil {
		s.storageClient.Close()
	}
}
