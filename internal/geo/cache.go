package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

// Cache is the persistent coordinate cache, keyed by "<city>, PE". A nil
// entry is a negative marker for a place that failed to resolve; only
// non-nil entries are authoritative. The file is read in full at load and
// rewritten in full after every mutation, and all file I/O is
// best-effort: a missing or corrupt file just means an empty cache.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]*models.GeoPoint
}

func NewCache(path string) *Cache {
	return &Cache{path: path, entries: make(map[string]*models.GeoPoint)}
}

// Load replaces the in-memory entries with the file contents.
func (c *Cache) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.GeoPoint)

	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var raw map[string]*[2]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}
	for k, v := range raw {
		if v == nil {
			c.entries[k] = nil
			continue
		}
		c.entries[k] = &models.GeoPoint{Lat: v[0], Lon: v[1]}
	}
}

// Save rewrites the cache file. Write failures are swallowed: persistence
// is an optimization, never a reason to fail a run.
func (c *Cache) Save() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveLocked()
}

func (c *Cache) saveLocked() {
	raw := make(map[string]*[2]float64, len(c.entries))
	for k, v := range c.entries {
		if v == nil {
			raw[k] = nil
			continue
		}
		raw[k] = &[2]float64{v.Lat, v.Lon}
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path, data, 0o644)
}

// Get returns the stored entry and whether the key is present at all. A
// present key with a nil point is a negative marker.
func (c *Cache) Get(key string) (*models.GeoPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	return p, ok
}

// Put stores an entry (nil marks a failed resolution) and persists.
func (c *Cache) Put(key string, p *models.GeoPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = p
	c.saveLocked()
}

// Clear empties the cache and removes the file.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.GeoPoint)
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// Len reports the number of stored entries, negatives included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
