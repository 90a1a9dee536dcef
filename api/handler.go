package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/nfemapa/nfe-extractor-service/internal/auth"
	"github.com/nfemapa/nfe-extractor-service/internal/db"
	"github.com/nfemapa/nfe-extractor-service/internal/extract"
	"github.com/nfemapa/nfe-extractor-service/internal/geo"
	"github.com/nfemapa/nfe-extractor-service/internal/models"
	"github.com/nfemapa/nfe-extractor-service/internal/normalize"
	"github.com/nfemapa/nfe-extractor-service/internal/storage"
	"github.com/nfemapa/nfe-extractor-service/internal/zone"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.2.0"
)

// Handler handles HTTP requests for NF-e text extraction
type Handler struct {
	config   *models.Config
	cache    *geo.Cache
	resolver *geo.Resolver
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, cache *geo.Cache, resolver *geo.Resolver) *Handler {
	return &Handler{
		config:   config,
		cache:    cache,
		resolver: resolver,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Main endpoints
	router.HandleFunc("/api/process-text", h.ProcessText).Methods("POST")
	router.HandleFunc("/api/extractions", h.GetExtractions).Methods("GET")

	// Extraction CRUD + collaborator outputs
	router.HandleFunc("/api/extraction/{id}", h.GetExtraction).Methods("GET")
	router.HandleFunc("/api/extraction/{id}", h.DeleteExtraction).Methods("DELETE")
	router.HandleFunc("/api/extraction/{id}/xlsx", h.GetExtractionXLSX).Methods("GET")
	router.HandleFunc("/api/extraction/{id}/map-data", h.GetMapData).Methods("GET")

	// Geocache maintenance
	router.HandleFunc("/api/geocache/clear", h.ClearGeocache).Methods("POST")

	// Statistics
	router.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	Geocoding map[string]string `json:"geocoding"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Database: h.checkDatabase(),
		Storage:  h.checkStorage(),
		Geocoding: map[string]string{
			"enabled":      fmt.Sprintf("%t", h.config.Geocoding.Enabled),
			"cacheEntries": fmt.Sprintf("%d", h.cache.Len()),
		},
	}

	// The extraction core has no external dependency; DB/storage being
	// down only degrades archiving.
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if db.Pool == nil {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL via PgBouncer",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// extractionResult bundles one processed dump.
type extractionResult struct {
	Rows []models.NotaRow
	KPIs models.KPIs
}

// processText runs the full pipeline: normalize, scan, merge
// continuations, classify zones, compute the KPI block.
func (h *Handler) processText(text string) (*extractionResult, error) {
	notas, err := extract.Scan(text)
	if err != nil {
		return nil, err
	}
	merged := extract.MergeContinuations(notas)

	res := &extractionResult{
		Rows: make([]models.NotaRow, 0, len(merged)),
		KPIs: models.KPIs{NotasExtraidas: len(merged)},
	}

	distinct := map[string]bool{}
	total := decimal.Zero
	for _, n := range merged {
		z, fee := zone.Classify(n.Municipio)
		row := models.NotaRow{Nota: n, Zona: z, ValorFrete: fee}
		res.Rows = append(res.Rows, row)

		switch z {
		case zone.Capital:
			res.KPIs.Capital++
		case zone.Metropolitana:
			res.KPIs.Metropolitana++
		default:
			res.KPIs.Outros++
		}
		if fee != nil {
			total = total.Add(*fee)
		}
		if mun := normalize.SanitizeMunicipality(n.Municipio); mun != "" {
			distinct[normalize.StripAccentsUpper(mun)] = true
		}
	}
	res.KPIs.MunicipiosDistintos = len(distinct)
	res.KPIs.TotalFrete = total
	return res, nil
}

// ProcessText handles TXT dump processing with multi-tenant support
func (h *Handler) ProcessText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	start := time.Now()

	// Get claims from JWT
	claims, err := auth.GetClaimsFromContext(ctx)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized: "+err.Error())
		return
	}

	// Parse multipart form
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	err = r.ParseMultipartForm(MaxUploadSize)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	// Get file - accept both "file" and "text" field names
	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("text")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' or 'text' field)")
			return
		}
	}
	defer file.Close()

	rawData, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	// Lossy UTF-8 decode: invalid bytes become replacement runes rather
	// than failing the upload.
	text := strings.ToValidUTF8(string(rawData), "�")

	result, err := h.processText(text)
	if err != nil {
		if err == extract.ErrNoRecords {
			h.sendError(w, http.StatusUnprocessableEntity,
				"no invoices found in TXT; check the document layout")
			return
		}
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("extraction failed: %v", err))
		return
	}

	// Upload raw dump to MinIO (if configured)
	var arquivoURL string
	filename := fmt.Sprintf("%s_%s.txt",
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8],
	)
	if storage.Client != nil {
		reader := bytes.NewReader(rawData)
		arquivoURL, err = storage.UploadArtifact(
			ctx,
			claims.OrgAlias,
			filename,
			reader,
			int64(len(rawData)),
			storage.ContentTypeFor("txt"),
		)
		if err != nil {
			// Log but don't fail - artifact storage is optional
			fmt.Printf("Warning: failed to upload TXT to MinIO: %v\n", err)
		}
	}

	// Resolve coordinates for the distinct destinations
	mapPoints, naoPlotados := h.buildMapPoints(ctx, result.Rows)

	// Save run to DB (best-effort)
	var savedExtraction *db.Extraction
	if db.Pool != nil {
		totalFrete, _ := result.KPIs.TotalFrete.Float64()
		arquivoNome := header.Filename
		if arquivoNome == "" {
			arquivoNome = filename
		}
		ext := &db.Extraction{
			ArquivoNome: arquivoNome,
			ArquivoURL:  arquivoURL,
			TotalNotas:  result.KPIs.NotasExtraidas,
			Municipios:  result.KPIs.MunicipiosDistintos,
			TotalFrete:  totalFrete,
			UsuarioID:   parseUUID(claims.UserID),
		}
		if err := db.SaveExtraction(ctx, claims.OrgAlias, ext, result.Rows); err != nil {
			fmt.Printf("Warning: failed to save extraction to DB: %v\n", err)
		} else {
			savedExtraction = ext
		}
	}

	rows := make([]map[string]string, 0, len(result.Rows))
	for i := range result.Rows {
		rows = append(rows, rowToColumns(&result.Rows[i]))
	}

	responseData := map[string]interface{}{
		"success":       true,
		"rows":          rows,
		"kpis":          result.KPIs,
		"map_points":    mapPoints,
		"nao_plotados":  naoPlotados,
		"totalDuration": time.Since(start).Seconds(),
	}
	if savedExtraction != nil {
		responseData["extraction_id"] = savedExtraction.ID
		responseData["created_at"] = savedExtraction.CreatedAt
		responseData["saved_to_db"] = true
	} else {
		responseData["saved_to_db"] = false
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(responseData)
}

// buildMapPoints resolves each distinct sanitized municipality and counts
// its deliveries. Unresolved cities come back separately; ordering follows
// first appearance in the rows.
func (h *Handler) buildMapPoints(ctx context.Context, rows []models.NotaRow) ([]models.MapPoint, []string) {
	type entry struct {
		display string
		zona    string
		count   int
	}
	order := []string{}
	byKey := map[string]*entry{}
	for _, r := range rows {
		mun := normalize.SanitizeMunicipality(r.Municipio)
		if mun == "" {
			continue
		}
		key := normalize.StripAccentsUpper(mun)
		e, ok := byKey[key]
		if !ok {
			e = &entry{display: mun, zona: r.Zona}
			byKey[key] = e
			order = append(order, key)
		}
		e.count++
	}

	var points []models.MapPoint
	var naoPlotados []string
	for _, key := range order {
		e := byKey[key]
		p, ok := h.resolver.Resolve(ctx, e.display)
		if !ok {
			naoPlotados = append(naoPlotados, e.display)
			continue
		}
		points = append(points, models.MapPoint{
			Municipio: fmt.Sprintf("%s, PE", e.display),
			Lat:       p.Lat,
			Lon:       p.Lon,
			Zona:      e.zona,
			Entregas:  e.count,
		})
	}
	return points, naoPlotados
}

// GetExtractions returns runs for the authenticated user's organization
func (h *Handler) GetExtractions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	claims, err := auth.GetClaimsFromContext(ctx)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	extractions, err := db.GetExtractions(ctx, claims.OrgAlias, 100)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get extractions: %v", err))
		return
	}

	// Generate presigned URLs for stored dumps
	for i := range extractions {
		if extractions[i].ArquivoURL != "" && storage.Client != nil {
			if presignedURL, err := storage.GetPresignedURL(ctx, extractions[i].ArquivoURL); err == nil {
				extractions[i].ArquivoURL = presignedURL
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":     true,
		"extractions": extractions,
		"count":       len(extractions),
		"org_alias":   claims.OrgAlias,
	})
}

// GetExtraction returns a single run with its rows
func (h *Handler) GetExtraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	claims, err := auth.GetClaimsFromContext(ctx)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	vars := mux.Vars(r)
	extractionID := vars["id"]

	ext, err := db.GetExtractionByID(ctx, claims.OrgAlias, extractionID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("extraction not found: %v", err))
		return
	}

	notas, err := db.GetExtractionRows(ctx, claims.OrgAlias, extractionID)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get rows: %v", err))
		return
	}

	if ext.ArquivoURL != "" && storage.Client != nil {
		if presignedURL, err := storage.GetPresignedURL(ctx, ext.ArquivoURL); err == nil {
			ext.ArquivoURL = presignedURL
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"extraction": ext,
		"notas":      notas,
		"org_alias":  claims.OrgAlias,
	})
}

// DeleteExtraction removes a run, its rows and its stored artifacts
func (h *Handler) DeleteExtraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	claims, err := auth.GetClaimsFromContext(ctx)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	vars := mux.Vars(r)
	extractionID := vars["id"]

	// Optionally: delete dump from MinIO
	if storage.Client != nil {
		ext, err := db.GetExtractionByID(ctx, claims.OrgAlias, extractionID)
		if err == nil && ext.ArquivoURL != "" {
			// Delete artifact (ignore errors)
			_ = storage.DeleteArtifact(ctx, ext.ArquivoURL)
		}
	}

	if err := db.DeleteExtraction(ctx, claims.OrgAlias, extractionID); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete extraction")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "extraction deleted",
	})
}

// GetStats returns monthly statistics
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	claims, err := auth.GetClaimsFromContext(ctx)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	stats, err := db.GetMonthlyStats(ctx, claims.OrgAlias)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   true,
		"stats":     stats,
		"org_alias": claims.OrgAlias,
	})
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// rowToColumns flattens a row into the export column set
func rowToColumns(r *models.NotaRow) map[string]string {
	values := r.Values()
	out := make(map[string]string, len(models.Columns))
	for i, col := range models.Columns {
		out[col] = values[i]
	}
	return out
}

func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
