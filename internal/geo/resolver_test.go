package geo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

// fakeGeocoder records queries and serves canned answers.
type fakeGeocoder struct {
	calls  []string
	points map[string]*models.GeoPoint
	err    error
}

func (f *fakeGeocoder) Geocode(_ context.Context, query string) (*models.GeoPoint, error) {
	f.calls = append(f.calls, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.points[query], nil
}

func newTestResolver(t *testing.T, g Geocoder) (*Resolver, *Cache) {
	t.Helper()
	cache := NewCache(filepath.Join(t.TempDir(), "geocache.json"))
	r := NewResolver(cache, g, time.Second)
	r.sleep = func(time.Duration) {} // no real waiting in tests
	return r, cache
}

func TestResolveCacheHit(t *testing.T) {
	fake := &fakeGeocoder{}
	r, cache := newTestResolver(t, fake)
	cache.Put("Gravatá, PE", &models.GeoPoint{Lat: -8.2010, Lon: -35.5650})

	p, ok := r.Resolve(context.Background(), "Gravatá")
	if !ok {
		t.Fatal("expected resolution from cache")
	}
	if p.Lat != -8.2010 {
		t.Errorf("Lat = %v, want -8.2010", p.Lat)
	}
	if len(fake.calls) != 0 {
		t.Errorf("geocoder called %d times on a cache hit", len(fake.calls))
	}
}

func TestResolveFallbackTable(t *testing.T) {
	fake := &fakeGeocoder{}
	r, cache := newTestResolver(t, fake)

	// Accented input resolves through the accent-insensitive table.
	p, ok := r.Resolve(context.Background(), "Jaboatão dos Guararapes")
	if !ok {
		t.Fatal("expected fallback table hit")
	}
	if p.Lat != -8.1120 || p.Lon != -35.0140 {
		t.Errorf("point = %+v, want the curated coordinate", p)
	}
	if len(fake.calls) != 0 {
		t.Errorf("geocoder called despite fallback hit")
	}

	// The hit is written through to the cache under the raw key.
	if got, ok := cache.Get("Jaboatão dos Guararapes, PE"); !ok || got == nil {
		t.Errorf("fallback result not cached: %v, %v", got, ok)
	}
}

func TestResolveGeocoder(t *testing.T) {
	fake := &fakeGeocoder{points: map[string]*models.GeoPoint{
		"Petrolina, Pernambuco, Brazil": {Lat: -9.3891, Lon: -40.5030},
	}}
	r, cache := newTestResolver(t, fake)

	p, ok := r.Resolve(context.Background(), "Petrolina, PE")
	if !ok {
		t.Fatal("expected geocoder resolution")
	}
	if p.Lat != -9.3891 {
		t.Errorf("Lat = %v, want -9.3891", p.Lat)
	}
	if len(fake.calls) != 1 || fake.calls[0] != "Petrolina, Pernambuco, Brazil" {
		t.Errorf("geocoder queries = %v", fake.calls)
	}

	// Second resolve is served from cache, no new network call.
	if _, ok := r.Resolve(context.Background(), "Petrolina"); !ok {
		t.Fatal("cached geocoder result not reused")
	}
	if len(fake.calls) != 1 {
		t.Errorf("geocoder re-queried on cache hit: %v", fake.calls)
	}

	if got, ok := cache.Get("Petrolina, PE"); !ok || got == nil {
		t.Errorf("geocoder result not cached: %v, %v", got, ok)
	}
}

// A negative cache entry never short-circuits: the geocoder is consulted
// again on every call until a coordinate is finally found.
func TestResolveRetriesNegative(t *testing.T) {
	fake := &fakeGeocoder{points: map[string]*models.GeoPoint{}}
	r, cache := newTestResolver(t, fake)

	if _, ok := r.Resolve(context.Background(), "Cidade Perdida"); ok {
		t.Fatal("expected unresolved outcome")
	}
	if p, ok := cache.Get("Cidade Perdida, PE"); !ok || p != nil {
		t.Fatalf("expected stored negative marker, got %v, %v", p, ok)
	}

	// The geocoder now knows the place; a second call must find it.
	fake.points["Cidade Perdida, Pernambuco, Brazil"] = &models.GeoPoint{Lat: -8.5, Lon: -36.0}
	p, ok := r.Resolve(context.Background(), "Cidade Perdida")
	if !ok {
		t.Fatal("negative marker short-circuited the retry")
	}
	if p.Lat != -8.5 {
		t.Errorf("Lat = %v, want -8.5", p.Lat)
	}
	if len(fake.calls) != 2 {
		t.Errorf("geocoder calls = %d, want 2", len(fake.calls))
	}
}

func TestResolveNoGeocoder(t *testing.T) {
	r, _ := newTestResolver(t, nil)
	if _, ok := r.Resolve(context.Background(), "Serra Talhada"); ok {
		t.Fatal("resolution without geocoder or fallback entry should fail")
	}
}

func TestResolveGeocoderError(t *testing.T) {
	fake := &fakeGeocoder{err: context.DeadlineExceeded}
	r, _ := newTestResolver(t, fake)
	if _, ok := r.Resolve(context.Background(), "Salgueiro"); ok {
		t.Fatal("geocoder error must surface as unresolved")
	}
}

func TestCacheKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Recife", "Recife, PE"},
		{"RECIFE, PE", "RECIFE, PE"},
		{"Olinda PE", "Olinda, PE"},
	}
	for _, tt := range tests {
		if got := CacheKey(tt.input); got != tt.expected {
			t.Errorf("CacheKey(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
