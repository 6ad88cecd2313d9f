package handlers

import (
	"net/http"

	"prompthub/internal/app"
	"prompthub/internal/cache"
)

type CacheStatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CacheHandlers serves cache administration: warm-start and aggregate
// invalidation.
type CacheHandlers struct {
	app    *app.App
	warmer *cache.Warmer
}

// NewCacheHandlers creates CacheHandlers from the application container.
func NewCacheHandlers(application *app.App) *CacheHandlers {
	return &CacheHandlers{
		app:    application,
		warmer: cache.NewWarmer(application.Cache, application.DB),
	}
}

// InitCache handles POST /api/cache/init. Warm-start is idempotent:
// concurrent and repeated calls share one population pass.
func (h *CacheHandlers) InitCache(w http.ResponseWriter, r *http.Request) {
	if err := h.warmer.Warm(r.Context()); err != nil {
		sendError(w, http.StatusInternalServerError, "Cache initialization failed", err)
		return
	}
	sendJSON(w, http.StatusOK, CacheStatusResponse{Success: true, Message: "cache initialized"})
}

// ClearCache handles POST /api/cache/clear. It drops the aggregate
// snapshot; scoped entries lapse on their own TTL.
func (h *CacheHandlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Cache.InvalidateAggregate(r.Context()); err != nil {
		sendError(w, http.StatusInternalServerError, "Cache invalidation failed", err)
		return
	}
	sendJSON(w, http.StatusOK, CacheStatusResponse{Success: true, Message: "aggregate snapshot invalidated"})
}
