package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nfemapa/nfe-extractor-service/internal/auth"
	"github.com/nfemapa/nfe-extractor-service/internal/db"
	"github.com/nfemapa/nfe-extractor-service/internal/export"
	"github.com/nfemapa/nfe-extractor-service/internal/storage"
)

// GetExtractionXLSX streams an archived run as an XLSX workbook and
// mirrors the artifact to MinIO when storage is configured.
func (h *Handler) GetExtractionXLSX(w http.ResponseWriter, r *http.Request) {
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

	rows, err := db.GetExtractionRows(ctx, claims.OrgAlias, extractionID)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get rows: %v", err))
		return
	}

	data, err := export.BuildXLSX(rows)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build workbook: %v", err))
		return
	}

	if storage.Client != nil {
		objectName := fmt.Sprintf("notas_%s.xlsx", ext.ID)
		if _, err := storage.UploadArtifact(ctx, claims.OrgAlias, objectName,
			bytes.NewReader(data), int64(len(data)), storage.ContentTypeFor("xlsx")); err != nil {
			fmt.Printf("Warning: failed to mirror XLSX to MinIO: %v\n", err)
		}
	}

	w.Header().Set("Content-Type", storage.ContentTypeFor("xlsx"))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="notas_extraidas_%s.xlsx"`, ext.CreatedAt.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetMapData returns the tuples the map-rendering collaborator consumes:
// one entry per resolvable destination with its delivery count, plus the
// list of municipalities no source could place.
func (h *Handler) GetMapData(w http.ResponseWriter, r *http.Request) {
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

	rows, err := db.GetExtractionRows(ctx, claims.OrgAlias, extractionID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("extraction not found: %v", err))
		return
	}

	points, naoPlotados := h.buildMapPoints(ctx, rows)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":      true,
		"points":       points,
		"plotted":      len(points),
		"nao_plotados": naoPlotados,
	})
}

// ClearGeocache empties the coordinate cache and removes its file, so
// stale or wrong coordinates can be re-resolved from scratch.
func (h *Handler) ClearGeocache(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, err := auth.GetClaimsFromContext(r.Context()); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.cache.Clear(); err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to clear cache: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "geocache cleared",
	})
}
