package repositories

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// FingerprintCacheRepository caches column fingerprints keyed by dataset
// identity plus content hash. The engine itself stays cache-agnostic; the
// caller owns invalidation, which happens naturally because re-registered
// data hashes differently. Stale entries for a dataset are evicted on Put.
type FingerprintCacheRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]cacheEntry
}

type cacheEntry struct {
	contentHash  uint64
	fingerprints []models.ColumnFingerprint
}

// NewFingerprintCacheRepository creates an empty cache.
func NewFingerprintCacheRepository() *FingerprintCacheRepository {
	return &FingerprintCacheRepository{entries: make(map[uuid.UUID]cacheEntry)}
}

// Get returns the cached fingerprints when both the dataset ID and the
// content hash match.
func (c *FingerprintCacheRepository) Get(datasetID uuid.UUID, contentHash uint64) ([]models.ColumnFingerprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[datasetID]
	if !ok || entry.contentHash != contentHash {
		return nil, false
	}
	return entry.fingerprints, true
}

// Put stores fingerprints for a dataset, replacing any entry with a
// different hash.
func (c *FingerprintCacheRepository) Put(datasetID uuid.UUID, contentHash uint64, fps []models.ColumnFingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[datasetID] = cacheEntry{contentHash: contentHash, fingerprints: fps}
}

// Evict drops any cached fingerprints for the dataset.
func (c *FingerprintCacheRepository) Evict(datasetID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, datasetID)
}

// Len returns the number of cached datasets.
func (c *FingerprintCacheRepository) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
