package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/db"
	"github.com/kraxel-io/kraxel-api/pkg/response"
)

type tokenReader interface {
	List(ctx context.Context, limit, offset int) (db.Rows, int64, error)
	Get(ctx context.Context, contractPrincipal string) (map[string]any, error)
}

// TokenHandler serves /tokens.
type TokenHandler struct {
	repo   tokenReader
	logger *zap.Logger
}

// NewTokenHandler creates a token handler.
func NewTokenHandler(repo tokenReader, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{repo: repo, logger: logger}
}

// Routes mounts the token endpoints.
func (h *TokenHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{contractPrincipal}", h.Get)
}

// List handles GET /tokens.
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	rows, total, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rows, pageMeta(total, limit, offset))
}

// Get handles GET /tokens/{contractPrincipal}.
func (h *TokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	token, err := h.repo.Get(r.Context(), chi.URLParam(r, "contractPrincipal"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, token, map[string]any{})
}
