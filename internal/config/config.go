package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	FirebaseProjectID       string
	FirebaseBucketName      string
	FirebaseCredentialsPath string
	FirebaseCredentialsJSON string // Raw JSON string, preferred in container deployments

	PostsCollection      string // Photo records written by the upload pipeline
	BlobsCollection      string // Binary photo documents (legacy imports)
	AlbumsCollection     string
	ScrapbooksCollection string

	GeocoderAPIKey  string
	GeocoderBaseURL string
	GeocoderTimeout time.Duration
	GeocoderRPS     float64 // Reverse-geocode calls per second

	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration

	AlbumMinPhotos    int
	TripGapHours      float64
	TripMaxDistanceKm float64
	TripMinPhotos     int

	ScrapbookAutoUpdate bool // Global toggle for the incremental scrapbook path
	ScrapbookMinPosts   int

	DownloadConcurrency int // Parallel image downloads per ingestion batch
}

// Load reads configuration from environment variables and .env file.
// It loads the .env file if present, then populates the Config struct.
// Returns an error if required configuration is missing.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseBucketName:      getEnv("FIREBASE_BUCKET_NAME", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "firebase-service-account.json"),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		PostsCollection:         getEnv("POSTS_COLLECTION", "posts"),
		BlobsCollection:         getEnv("BLOBS_COLLECTION", "photoBlobs"),
		AlbumsCollection:        getEnv("ALBUMS_COLLECTION", "albums"),
		ScrapbooksCollection:    getEnv("SCRAPBOOKS_COLLECTION", "scrapbooks"),
		GeocoderAPIKey:          getEnv("GEOCODER_API_KEY", ""),
		GeocoderBaseURL:         getEnv("GEOCODER_BASE_URL", "https://api-bdc.net/data/reverse-geocode"),
		GeocoderTimeout:         getDurationEnv("GEOCODER_TIMEOUT", 10*time.Second),
		GeocoderRPS:             getFloatEnv("GEOCODER_RPS", 1),
		CacheTTL:                getDurationEnv("CACHE_TTL", 24*time.Hour),
		CacheCleanupInterval:    getDurationEnv("CACHE_CLEANUP_INTERVAL", 30*time.Minute),
		AlbumMinPhotos:          getIntEnv("ALBUM_MIN_PHOTOS", 10),
		TripGapHours:            getFloatEnv("TRIP_GAP_HOURS", 48),
		TripMaxDistanceKm:       getFloatEnv("TRIP_MAX_DISTANCE_KM", 100),
		TripMinPhotos:           getIntEnv("TRIP_MIN_PHOTOS", 3),
		ScrapbookAutoUpdate:     getBoolEnv("SCRAPBOOK_AUTO_UPDATE", true),
		ScrapbookMinPosts:       getIntEnv("SCRAPBOOK_MIN_POSTS", 6),
		DownloadConcurrency:     getIntEnv("DOWNLOAD_CONCURRENCY", 4),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
// The geocoder API key is deliberately not checked here: only the album
// pipeline needs geocoding, and the geocoder constructor fails fast when
// the key is missing.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if c.FirebaseCredentialsJSON == "" && c.FirebaseCredentialsPath == "" {
		return fmt.Errorf("either FIREBASE_CREDENTIALS_JSON or FIREBASE_CREDENTIALS_PATH must be set")
	}
	if c.PostsCollection == "" || c.AlbumsCollection == "" || c.ScrapbooksCollection == "" {
		return fmt.Errorf("POSTS_COLLECTION, ALBUMS_COLLECTION and SCRAPBOOKS_COLLECTION are required")
	}
	if c.GeocoderTimeout <= 0 {
		return fmt.Errorf("GEOCODER_TIMEOUT must be positive")
	}
	if c.GeocoderRPS <= 0 {
		return fmt.Errorf("GEOCODER_RPS must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.CacheCleanupInterval <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL must be positive")
	}
	if c.ScrapbookMinPosts < 1 {
		return fmt.Errorf("SCRAPBOOK_MIN_POSTS must be at least 1")
	}
	if c.DownloadConcurrency < 1 {
		return fmt.Errorf("DOWNLOAD_CONCURRENCY must be at least 1")
	}
	return nil
}

// Retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// Retrieves a duration from environment variable or returns a default value.
// It supports both time.Duration format (e.g., "10m", "12h") and integer minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

// Retrieves an integer from environment variable or returns a default value.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// Retrieves a float from environment variable or returns a default value.
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// Retrieves a boolean from environment variable or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
