package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/TheRizaev/kronik/internal/catalog"
	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/infrastructure/metrics"
)

// CatalogReader is the slice of the catalog cache the handler uses.
// *catalog.Cache satisfies it.
type CatalogReader interface {
	Read(ctx context.Context, offset, limit int, shuffle bool) ([]model.CatalogEntry, int, error)
	Rebuild(ctx context.Context, trigger string) (*catalog.Document, error)
}

type CatalogEntryResponse struct {
	VideoResponse
	DisplayName string `json:"display_name"`
}

type CatalogResponse struct {
	Videos []CatalogEntryResponse `json:"videos"`
	Offset int                    `json:"offset"`
	Count  int                    `json:"count"`
	Total  int                    `json:"total"`
}

// CatalogHandler serves the cross-channel video catalog.
type CatalogHandler struct {
	cache CatalogReader

	defaultLimit int
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cache CatalogReader) *CatalogHandler {
	return &CatalogHandler{cache: cache, defaultLimit: 20}
}

// List handles GET /v1/catalog
//
// Query parameters: offset, limit and shuffle. Shuffle randomizes the whole
// catalog before the window is cut, so successive pages are only coherent
// without it.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	offset := intQuery(r, "offset", 0)
	limit := intQuery(r, "limit", h.defaultLimit)
	shuffle := r.URL.Query().Get("shuffle") == "true"

	entries, total, err := h.cache.Read(r.Context(), offset, limit, shuffle)
	if err != nil {
		Error(w, http.StatusInternalServerError, "catalog_unavailable", "Failed to read the catalog")
		return
	}

	videos := make([]CatalogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		videos = append(videos, CatalogEntryResponse{
			VideoResponse: toVideoResponse(&entry.VideoRecord),
			DisplayName:   entry.DisplayName,
		})
	}

	JSON(w, http.StatusOK, CatalogResponse{
		Videos: videos,
		Offset: offset,
		Count:  len(videos),
		Total:  total,
	})
}

// Rebuild handles POST /v1/catalog/rebuild
func (h *CatalogHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	doc, err := h.cache.Rebuild(r.Context(), metrics.CatalogTriggerOnDemand)
	if err != nil {
		Error(w, http.StatusInternalServerError, "rebuild_failed", "Failed to rebuild the catalog")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"generated_at": doc.GeneratedAt,
		"videos":       len(doc.Videos),
	})
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
