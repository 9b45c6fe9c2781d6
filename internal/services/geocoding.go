package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "memoir-api/internal/errors"
	"memoir-api/internal/models"
)

// Geocoder resolves a coordinate pair into the administrative boundaries
// containing it.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, point models.GeoPoint) ([]models.Boundary, error)
}

// Performs reverse geocoding against a BigDataCloud-style API with caching
// and rate limiting. The external service is paid and rate limited, so calls
// are serialized through a limiter and each call carries its own timeout.
type GeocodingService struct {
	baseURL     string
	apiKey      string
	timeout     time.Duration
	cache       *BoundaryCache
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// Models the subset of the reverse-geocode response that we care about:
// the per-level administrative hierarchy. Everything else in the payload
// stays untyped and never leaks past this file.
type reverseGeocodeResponse struct {
	LocalityInfo struct {
		Administrative []administrativeEntity `json:"administrative"`
	} `json:"localityInfo"`
}

type administrativeEntity struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsoCode     string `json:"isoCode"`
	WikidataID  string `json:"wikidataId"`
	AdminLevel  *int   `json:"adminLevel"`
	Order       *int   `json:"order"`
}

type GeocoderOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	RPS     float64
	Cache   *BoundaryCache
}

// Returns a fully configured geocoder or an error when the API key is
// missing; a missing credential is a configuration error and must surface
// before any per-coordinate work starts.
func NewGeocodingService(opts GeocoderOptions, logger *zap.Logger) (*GeocodingService, error) {
	if opts.APIKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 1
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewBoundaryCache(24*time.Hour, 30*time.Minute)
	}

	return &GeocodingService{
		baseURL:     opts.BaseURL,
		apiKey:      opts.APIKey,
		timeout:     opts.Timeout,
		cache:       cache,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RPS), 1),
		logger:      logger,
	}, nil
}

// Performs a coordinate→boundary lookup.
// The function:
//  1. checks the boundary cache under a rounded coordinate key
//  2. applies rate limiting
//  3. calls the reverse-geocode API with a per-call timeout
//  4. maps the administrative hierarchy into typed boundaries
//  5. caches & returns the result
//
// Transport and decode failures surface as errors; the clusterer treats
// them as "no boundary matches" so one bad coordinate never aborts a batch.
func (g *GeocodingService) ReverseGeocode(ctx context.Context, point models.GeoPoint) ([]models.Boundary, error) {
	key := boundaryCacheKey(point)

	if cached, ok := g.cache.Get(key); ok {
		return cached, nil
	}

	// Rate limit before making the API call
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	boundaries, err := g.fetchBoundaries(ctx, point)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("reverse geocoded point",
		zap.String("key", key),
		zap.Int("boundaries", len(boundaries)))

	g.cache.Set(key, boundaries)
	return boundaries, nil
}

// Key rounded to ~11m so nearby shots share one lookup without
// fragmenting the cache.
func boundaryCacheKey(p models.GeoPoint) string {
	return fmt.Sprintf("%.4f,%.4f", p.Latitude, p.Longitude)
}

// Performs the actual HTTP request and parses the response.
func (g *GeocodingService) fetchBoundaries(ctx context.Context, point models.GeoPoint) ([]models.Boundary, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(point.Latitude, 'f', 6, 64))
	q.Set("longitude", strconv.FormatFloat(point.Longitude, 'f', 6, 64))
	q.Set("localityLanguage", "en")
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocoder returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var data reverseGeocodeResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	return mapBoundaries(data.LocalityInfo.Administrative), nil
}

// Maps the untyped administrative hierarchy into boundary descriptors.
// Entries without a name carry no usable identity and are skipped.
func mapBoundaries(entities []administrativeEntity) []models.Boundary {
	boundaries := make([]models.Boundary, 0, len(entities))
	for _, e := range entities {
		if e.Name == "" {
			continue
		}

		level := "unknown"
		switch {
		case e.AdminLevel != nil:
			level = strconv.Itoa(*e.AdminLevel)
		case e.Order != nil:
			level = strconv.Itoa(*e.Order)
		}

		id := e.IsoCode
		if id == "" {
			id = e.WikidataID
		}
		if id == "" {
			id = level + ":" + e.Name
		}

		boundaries = append(boundaries, models.Boundary{
			Level:       level,
			ID:          id,
			Name:        e.Name,
			Code:        e.IsoCode,
			Description: e.Description,
		})
	}
	return boundaries
}
