package services

import (
	"sync"
	"time"

	"memoir-api/internal/models"
)

type boundaryCacheEntry struct {
	boundaries []models.Boundary
	expires    time.Time
}

// BoundaryCache memoizes reverse-geocode results per rounded coordinate so
// that a clustering pass over thousands of photos taken in the same place
// costs one API call, not thousands.
type BoundaryCache struct {
	cache           map[string]boundaryCacheEntry
	mu              sync.RWMutex
	ttl             time.Duration
	cleanupInterval time.Duration
}

func NewBoundaryCache(ttl, cleanupInterval time.Duration) *BoundaryCache {
	bc := &BoundaryCache{
		cache:           make(map[string]boundaryCacheEntry),
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
	}

	// Start cleanup goroutine
	go bc.cleanupExpired()

	return bc
}

// Retrieves a cached boundary list by key, returning false if not found or expired.
func (bc *BoundaryCache) Get(key string) ([]models.Boundary, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	entry, ok := bc.cache[key]
	if !ok {
		return nil, false
	}

	if entry.expires.Before(time.Now()) {
		return nil, false
	}

	return entry.boundaries, true
}

// Stores a boundary list under the given key. The entry will expire after
// the configured TTL.
func (bc *BoundaryCache) Set(key string, boundaries []models.Boundary) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	bc.cache[key] = boundaryCacheEntry{
		boundaries: boundaries,
		expires:    time.Now().Add(bc.ttl),
	}
}

// Periodically removes expired entries from the cache.
// This runs in a background goroutine started by NewBoundaryCache.
func (bc *BoundaryCache) cleanupExpired() {
	ticker := time.NewTicker(bc.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		bc.mu.Lock()
		for k, v := range bc.cache {
			if v.expires.Before(now) {
				delete(bc.cache, k)
			}
		}
		bc.mu.Unlock()
	}
}
