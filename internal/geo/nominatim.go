package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

// Geocoder resolves a free-text place query to a coordinate within a
// bounded time. A (nil, nil) return means the provider found nothing;
// both outcomes are soft failures to the resolver.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*models.GeoPoint, error)
}

// NominatimClient is the OpenStreetMap Nominatim collaborator.
type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewNominatimClient(cfg models.GeocodingConfig) *NominatimClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "nfe_extractor_ws"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode queries /search with format=jsonv2&limit=1. Nominatim's usage
// policy requires an identifying User-Agent.
func (c *NominatimClient) Geocode(ctx context.Context, query string) (*models.GeoPoint, error) {
	u := fmt.Sprintf("%s/search?q=%s&format=jsonv2&limit=1",
		c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}
	return &models.GeoPoint{Lat: lat, Lon: lon}, nil
}
