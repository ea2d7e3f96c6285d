package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/db"
	"github.com/kraxel-io/kraxel-api/internal/repository"
	"github.com/kraxel-io/kraxel-api/pkg/response"
)

type swapReader interface {
	ListRecent(ctx context.Context, f repository.SwapFilter) (db.Rows, int64, error)
	ListByContract(ctx context.Context, contractPrincipal, userAddress string, f repository.SwapFilter) (db.Rows, int64, error)
	ListByUser(ctx context.Context, userAddress string, f repository.SwapFilter) (db.Rows, int64, error)
	ListByAddressContract(ctx context.Context, userAddress, contractPrincipal string, f repository.SwapFilter) (db.Rows, int64, error)
	Filter(ctx context.Context, f repository.SwapDetailFilter) (db.Rows, int64, error)
	Stats(ctx context.Context, period, token string, f repository.SwapFilter) (map[string]any, error)
}

// SwapHandler serves /swaps.
type SwapHandler struct {
	repo   swapReader
	logger *zap.Logger
}

// NewSwapHandler creates a swap handler.
func NewSwapHandler(repo swapReader, logger *zap.Logger) *SwapHandler {
	return &SwapHandler{repo: repo, logger: logger}
}

// Routes mounts the swap endpoints.
func (h *SwapHandler) Routes(r chi.Router) {
	r.Get("/", h.ListRecent)
	r.Get("/filter", h.Filter)
	r.Get("/stats", h.Stats)
	r.Get("/address-contract", h.ListByAddressContract)
	r.Get("/contract/{contractPrincipal}", h.ListByContract)
	r.Get("/user/{userAddress}", h.ListByUser)
}

func swapFilter(r *http.Request) repository.SwapFilter {
	return repository.SwapFilter{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		Limit:     queryInt(r, "limit", 50),
		Offset:    queryInt(r, "offset", 0),
	}
}

// ListRecent handles GET /swaps.
func (h *SwapHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	f := swapFilter(r)

	rows, total, err := h.repo.ListRecent(r.Context(), f)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rows, pageMeta(total, f.Limit, f.Offset))
}

// Filter handles GET /swaps/filter: swaps narrowed by swap_details
// fields (token_x, token_y, min_amount, max_amount) plus the usual
// date range.
func (h *SwapHandler) Filter(w http.ResponseWriter, r *http.Request) {
	f := repository.SwapDetailFilter{
		TokenX:     r.URL.Query().Get("token_x"),
		TokenY:     r.URL.Query().Get("token_y"),
		MinAmount:  queryFloat(r, "min_amount"),
		MaxAmount:  queryFloat(r, "max_amount"),
		SwapFilter: swapFilter(r),
	}

	rows, total, err := h.repo.Filter(r.Context(), f)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rows, pageMeta(total, f.Limit, f.Offset))
}

// Stats handles GET /swaps/stats: per-period swap counts and unique
// users, with overall totals. The period defaults to day.
func (h *SwapHandler) Stats(w http.ResponseWriter, r *http.Request) {
	f := swapFilter(r)
	period := r.URL.Query().Get("period")
	token := r.URL.Query().Get("token")

	stats, err := h.repo.Stats(r.Context(), period, token, f)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, stats, nil)
}

// ListByAddressContract handles GET /swaps/address-contract, where
// both user_address and contract_principal are optional.
func (h *SwapHandler) ListByAddressContract(w http.ResponseWriter, r *http.Request) {
	f := swapFilter(r)
	userAddress := r.URL.Query().Get("user_address")
	contract := r.URL.Query().Get("contract_principal")

	rows, total, err := h.repo.ListByAddressContract(r.Context(), userAddress, contract, f)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rows, pageMeta(total, f.Limit, f.Offset))
}

// ListByContract handles GET /swaps/contract/{contractPrincipal} with
// an optional user_address filter.
func (h *SwapHandler) ListByContract(w http.ResponseWriter, r *http.Request) {
	f := swapFilter(r)
	contract := chi.URLParam(r, "contractPrincipal")
	userAddress := r.URL.Query().Get("user_address")

	rows, total, err := h.repo.ListByContract(r.Context(), contract, userAddress, f)
	if err != nil {
		response.FromError(w, err)
		return
	}

	meta := pageMeta(total, f.Limit, f.Offset)
	meta["contract_principal"] = contract
	response.OK(w, rows, meta)
}

// ListByUser handles GET /swaps/user/{userAddress}.
func (h *SwapHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	f := swapFilter(r)
	userAddress := chi.URLParam(r, "userAddress")

	rows, total, err := h.repo.ListByUser(r.Context(), userAddress, f)
	if err != nil {
		response.FromError(w, err)
		return
	}

	meta := pageMeta(total, f.Limit, f.Offset)
	meta["user_address"] = userAddress
	response.OK(w, rows, meta)
}
