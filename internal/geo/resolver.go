package geo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
	"github.com/nfemapa/nfe-extractor-service/internal/normalize"
)

// Resolver turns a city name into a coordinate, cache first. Source
// precedence: truthy cache entry, static fallback table, the external
// geocoder, then a negative cache marker. A stored negative never
// short-circuits: unresolved places are re-attempted on every call so a
// transient geocoder failure does not blacklist a city.
//
// Resolution is serialized: concurrent callers take turns, which also
// keeps the geocoder's inter-call delay honest.
type Resolver struct {
	mu       sync.Mutex
	cache    *Cache
	geocoder Geocoder // nil when network geocoding is disabled
	delay    time.Duration
	sleep    func(time.Duration) // swapped in tests
}

func NewResolver(cache *Cache, geocoder Geocoder, delay time.Duration) *Resolver {
	if delay <= 0 {
		delay = time.Second
	}
	return &Resolver{
		cache:    cache,
		geocoder: geocoder,
		delay:    delay,
		sleep:    time.Sleep,
	}
}

// CacheKey builds the canonical cache key for a raw municipality value.
func CacheKey(city string) string {
	return fmt.Sprintf("%s, PE", normalize.SanitizeMunicipality(city))
}

// Resolve returns the coordinate for city, or ok=false when every source
// came up empty. Geocoder errors are absorbed here; they only surface as
// an unresolved outcome.
func (r *Resolver) Resolve(ctx context.Context, city string) (models.GeoPoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clean := normalize.SanitizeMunicipality(city)
	keyRaw := fmt.Sprintf("%s, PE", clean)

	if p, ok := r.cache.Get(keyRaw); ok && p != nil {
		return *p, true
	}

	if p, ok := lookupFallback(keyRaw); ok {
		r.cache.Put(keyRaw, &p)
		return p, true
	}

	if r.geocoder != nil {
		query := fmt.Sprintf("%s, Pernambuco, Brazil", clean)
		if p, err := r.geocoder.Geocode(ctx, query); err == nil && p != nil {
			r.cache.Put(keyRaw, p)
			r.sleep(r.delay)
			return *p, true
		}
	}

	r.cache.Put(keyRaw, nil)
	return models.GeoPoint{}, false
}
