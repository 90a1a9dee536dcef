package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nfemapa/nfe-extractor-service/api"
	"github.com/nfemapa/nfe-extractor-service/internal/auth"
	"github.com/nfemapa/nfe-extractor-service/internal/db"
	"github.com/nfemapa/nfe-extractor-service/internal/geo"
	"github.com/nfemapa/nfe-extractor-service/internal/models"
	"github.com/nfemapa/nfe-extractor-service/internal/storage"
)

func main() {
	// Initialize JWT
	if err := auth.Init(); err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	log.Println("JWT authentication initialized")

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		log.Printf("Warning: Database not available: %v", err)
		log.Println("Running in extract-only mode (no run archive)")
	} else {
		defer db.Close()
		log.Println("Database connection pool initialized")
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("TXT dumps and XLSX artifacts will not be stored")
	} else {
		log.Println("MinIO storage initialized")
	}

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Coordinate cache: loaded in full at startup, rewritten on mutation
	cache := geo.NewCache(config.Geocoding.CacheFile)
	cache.Load()
	log.Printf("Geocache loaded: %d entries from %s", cache.Len(), config.Geocoding.CacheFile)

	var geocoder geo.Geocoder
	if config.Geocoding.Enabled {
		geocoder = geo.NewNominatimClient(config.Geocoding)
		log.Println("Nominatim geocoding enabled")
	} else {
		log.Println("Nominatim geocoding disabled; static fallback table only")
	}
	resolver := geo.NewResolver(cache, geocoder, time.Duration(config.Geocoding.DelaySecs)*time.Second)

	// Create API handler
	handler := api.NewHandler(config, cache, resolver)
	router := handler.SetupRoutes()

	// Add login endpoint
	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")

	// Wrap router with JWT middleware (skips /health and /api/login)
	protectedRouter := auth.JWTMiddleware(router)

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting NF-e Extractor Service v%s on %s", api.Version, addr)
	log.Printf("Database: %v", db.Pool != nil)
	log.Printf("Storage: %v", storage.Client != nil)
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/login                       - Authenticate", addr)
	log.Printf("  POST http://%s/api/process-text                - Extract notas from TXT (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/extractions                 - List extraction runs (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/extraction/{id}             - Get single run (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/extraction/{id}/xlsx        - Download XLSX (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/extraction/{id}/map-data    - Map collaborator tuples (requires JWT)", addr)
	log.Printf("  DELETE http://%s/api/extraction/{id}           - Delete run (requires JWT)", addr)
	log.Printf("  POST http://%s/api/geocache/clear              - Clear coordinate cache (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/stats                       - Monthly stats (requires JWT)", addr)
	log.Printf("  GET  http://%s/health                          - Health check", addr)

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadConfig(path string) (*models.Config, error) {
	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var config models.Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if baseURL := os.Getenv("NOMINATIM_BASE_URL"); baseURL != "" {
		config.Geocoding.BaseURL = baseURL
	}
	if ua := os.Getenv("NOMINATIM_USER_AGENT"); ua != "" {
		config.Geocoding.UserAgent = ua
	}
	if cacheFile := os.Getenv("GEOCACHE_FILE"); cacheFile != "" {
		config.Geocoding.CacheFile = cacheFile
	}
	if os.Getenv("GEOCODING_DISABLED") == "true" {
		config.Geocoding.Enabled = false
	}

	if config.Geocoding.CacheFile == "" {
		config.Geocoding.CacheFile = "geocache_pe.json"
	}

	return &config, nil
}
