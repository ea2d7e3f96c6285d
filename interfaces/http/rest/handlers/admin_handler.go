package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/cache"
	"github.com/kraxel-io/kraxel-api/pkg/response"
)

// AdminHandler exposes cache administration: introspection and a
// full flush. There is no selective invalidation; a flush is the only
// manual invalidation supported.
type AdminHandler struct {
	store  *cache.Store
	logger *zap.Logger
}

// NewAdminHandler creates an admin handler over the shared store.
func NewAdminHandler(store *cache.Store, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{store: store, logger: logger}
}

// Routes mounts the admin endpoints.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/cache/stats", h.CacheStats)
	r.Post("/cache/clear", h.ClearCache)
}

// CacheStats handles GET /admin/cache/stats.
func (h *AdminHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.store.Stats(), nil)
}

// ClearCache handles POST /admin/cache/clear.
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	h.logger.Info("cache flushed via admin endpoint")
	response.OK(w, map[string]any{"cleared": true}, nil)
}
