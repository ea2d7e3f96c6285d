package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/db"
	"github.com/kraxel-io/kraxel-api/pkg/response"
)

type priceReader interface {
	List(ctx context.Context, contractPrincipal string, limit, offset int) (db.Rows, int64, error)
	Latest(ctx context.Context) (db.Rows, error)
	History(ctx context.Context, contractPrincipal string, limit, offset int) (db.Rows, int64, error)
}

// PriceHandler serves /prices from the price-tracker database.
type PriceHandler struct {
	repo   priceReader
	logger *zap.Logger
}

// NewPriceHandler creates a price handler.
func NewPriceHandler(repo priceReader, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{repo: repo, logger: logger}
}

// Routes mounts the price endpoints. The static /latest route takes
// precedence over the contract-principal parameter.
func (h *PriceHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/latest", h.Latest)
	r.Get("/{contractPrincipal}", h.History)
}

// List handles GET /prices with an optional contract_principal filter.
func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
	contract := r.URL.Query().Get("contract_principal")
	limit := queryInt(r, "limit", 1000)
	offset := queryInt(r, "offset", 0)

	rows, total, err := h.repo.List(r.Context(), contract, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rows, pageMeta(total, limit, offset))
}

// History handles GET /prices/{contractPrincipal}: the price history
// of one contract, newest first.
func (h *PriceHandler) History(w http.ResponseWriter, r *http.Request) {
	contract := chi.URLParam(r, "contractPrincipal")
	limit := queryInt(r, "limit", 30)
	offset := queryInt(r, "offset", 0)

	rows, total, err := h.repo.History(r.Context(), contract, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}

	meta := pageMeta(total, limit, offset)
	meta["contract_principal"] = contract
	response.OK(w, rows, meta)
}

// Latest handles GET /prices/latest.
func (h *PriceHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.Latest(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rows, map[string]any{"count": len(rows)})
}
