package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocache.json")

	c := NewCache(path)
	c.Load() // missing file is an empty cache
	if c.Len() != 0 {
		t.Fatalf("fresh cache Len = %d, want 0", c.Len())
	}

	c.Put("RECIFE, PE", &models.GeoPoint{Lat: -8.0476, Lon: -34.8770})
	c.Put("CIDADE INEXISTENTE, PE", nil)

	// A second cache over the same file sees both the coordinate and the
	// negative marker.
	c2 := NewCache(path)
	c2.Load()
	if c2.Len() != 2 {
		t.Fatalf("reloaded Len = %d, want 2", c2.Len())
	}

	p, ok := c2.Get("RECIFE, PE")
	if !ok || p == nil {
		t.Fatalf("Get(RECIFE) = %v, %v; want stored point", p, ok)
	}
	if p.Lat != -8.0476 || p.Lon != -34.8770 {
		t.Errorf("point = %+v, want lat -8.0476 lon -34.8770", p)
	}

	p, ok = c2.Get("CIDADE INEXISTENTE, PE")
	if !ok {
		t.Fatal("negative marker lost on reload")
	}
	if p != nil {
		t.Errorf("negative marker = %+v, want nil", p)
	}

	if _, ok := c2.Get("AUSENTE, PE"); ok {
		t.Error("Get reported presence for a key never stored")
	}
}

func TestCacheCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCache(path)
	c.Load()
	if c.Len() != 0 {
		t.Fatalf("corrupt file should load as empty, got Len = %d", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocache.json")

	c := NewCache(path)
	c.Put("OLINDA, PE", &models.GeoPoint{Lat: -8.0101, Lon: -34.8545})
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cache file still present after Clear: %v", err)
	}

	// Clearing an already-empty cache is not an error.
	if err := c.Clear(); err != nil {
		t.Errorf("second Clear returned error: %v", err)
	}
}
