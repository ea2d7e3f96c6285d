package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/db"
	"github.com/kraxel-io/kraxel-api/internal/repository"
	"github.com/kraxel-io/kraxel-api/pkg/apperrors"
	"github.com/kraxel-io/kraxel-api/pkg/response"
)

// transactionReader is the repository surface this handler needs.
type transactionReader interface {
	GetByID(ctx context.Context, txID string) (map[string]any, error)
	Events(ctx context.Context, txID string) (db.Rows, error)
	List(ctx context.Context, f repository.TransactionFilter) (db.Rows, int64, error)
	ListByBlock(ctx context.Context, blockHeight int64, limit, offset int) (db.Rows, int64, error)
	ListByAddress(ctx context.Context, address string, limit, offset int) (db.Rows, int64, error)
}

// TransactionHandler serves /transactions.
type TransactionHandler struct {
	repo   transactionReader
	logger *zap.Logger
}

// NewTransactionHandler creates a transaction handler.
func NewTransactionHandler(repo transactionReader, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{repo: repo, logger: logger}
}

// Routes mounts the transaction endpoints.
func (h *TransactionHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{txID}", h.Get)
	r.Get("/block/{blockHeight}", h.ListByBlock)
	r.Get("/address/{address}", h.ListByAddress)
}

// Get handles GET /transactions/{txID}. Events are included unless
// include_events=false.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txID")
	includeEvents := queryBool(r, "include_events", true)

	stored, err := h.repo.GetByID(r.Context(), txID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	// Copy before augmenting: the row may be shared with the cache.
	tx := make(map[string]any, len(stored)+2)
	for k, v := range stored {
		tx[k] = v
	}

	events := db.Rows{}
	if includeEvents {
		events, err = h.repo.Events(r.Context(), txID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		tx["event_count"] = len(events)
	}
	tx["events"] = events

	response.OK(w, tx, map[string]any{"events_count": len(events)})
}

// List handles GET /transactions with an optional block_height filter.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	f := repository.TransactionFilter{
		Limit:  queryInt(r, "limit", 20),
		Offset: queryInt(r, "offset", 0),
	}
	if v := r.URL.Query().Get("block_height"); v != "" {
		height, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.FromError(w, apperrors.Validation("block_height must be an integer"))
			return
		}
		f.BlockHeight = &height
	}

	rows, total, err := h.repo.List(r.Context(), f)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rows, pageMeta(total, f.Limit, f.Offset))
}

// ListByBlock handles GET /transactions/block/{blockHeight}. A block
// with no transactions is a 404.
func (h *TransactionHandler) ListByBlock(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseInt(chi.URLParam(r, "blockHeight"), 10, 64)
	if err != nil {
		response.FromError(w, apperrors.Validation("block height must be an integer"))
		return
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	rows, total, err := h.repo.ListByBlock(r.Context(), height, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if total == 0 {
		response.FromError(w, apperrors.NotFound("No transactions found for block %d", height))
		return
	}

	meta := pageMeta(total, limit, offset)
	meta["block_height"] = height
	response.OK(w, rows, meta)
}

// ListByAddress handles GET /transactions/address/{address}. An
// unknown address yields an empty list, not a 404.
func (h *TransactionHandler) ListByAddress(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	rows, total, err := h.repo.ListByAddress(r.Context(), address, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if rows == nil {
		rows = db.Rows{}
	}

	meta := pageMeta(total, limit, offset)
	meta["address"] = address
	response.OK(w, rows, meta)
}
