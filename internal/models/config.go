package models

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// Geocoding config
	Geocoding GeocodingConfig `yaml:"geocoding"`
}

// GeocodingConfig controls the Nominatim collaborator and the cache file.
type GeocodingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BaseURL      string `yaml:"base_url"`       // default: https://nominatim.openstreetmap.org
	UserAgent    string `yaml:"user_agent"`     // default: nfe_extractor_ws
	TimeoutSecs  int    `yaml:"timeout_secs"`   // default: 10
	DelaySecs    int    `yaml:"delay_secs"`     // default: 1 (rate-limit pause after each hit)
	CacheFile    string `yaml:"cache_file"`     // default: geocache_pe.json
}
