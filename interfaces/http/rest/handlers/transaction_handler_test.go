package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraxel-io/kraxel-api/internal/db"
	"github.com/kraxel-io/kraxel-api/internal/repository"
	"github.com/kraxel-io/kraxel-api/pkg/apperrors"
)

type stubTransactionReader struct {
	tx     map[string]any
	events db.Rows
	rows   db.Rows
	total  int64
	err    error
}

func (s *stubTransactionReader) GetByID(ctx context.Context, txID string) (map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tx, nil
}

func (s *stubTransactionReader) Events(ctx context.Context, txID string) (db.Rows, error) {
	return s.events, nil
}

func (s *stubTransactionReader) List(ctx context.Context, f repository.TransactionFilter) (db.Rows, int64, error) {
	return s.rows, s.total, s.err
}

func (s *stubTransactionReader) ListByBlock(ctx context.Context, blockHeight int64, limit, offset int) (db.Rows, int64, error) {
	return s.rows, s.total, s.err
}

func (s *stubTransactionReader) ListByAddress(ctx context.Context, address string, limit, offset int) (db.Rows, int64, error) {
	return s.rows, s.total, s.err
}

func serveTransactions(repo transactionReader, method, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/transactions", NewTransactionHandler(repo, nil).Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTransactionHandler_Get_IncludesEvents(t *testing.T) {
	repo := &stubTransactionReader{
		tx: map[string]any{"tx_id": "0xabc", "event_count": int64(0)},
		events: db.Rows{
			{"event_index": int64(0), "event_type": "ft_transfer"},
			{"event_index": int64(1), "event_type": "stx_transfer"},
		},
	}

	rec := serveTransactions(repo, http.MethodGet, "/transactions/0xabc")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "0xabc", data["tx_id"])
	assert.Len(t, data["events"], 2)
	assert.Equal(t, float64(2), data["event_count"])

	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["events_count"])
}

func TestTransactionHandler_Get_ExcludesEvents(t *testing.T) {
	repo := &stubTransactionReader{
		tx:     map[string]any{"tx_id": "0xabc", "event_count": int64(4)},
		events: db.Rows{{"event_index": int64(0)}},
	}

	rec := serveTransactions(repo, http.MethodGet, "/transactions/0xabc?include_events=false")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Empty(t, data["events"])
	assert.Equal(t, float64(4), data["event_count"], "stored count kept when events are skipped")
}

func TestTransactionHandler_Get_NotFound(t *testing.T) {
	repo := &stubTransactionReader{err: apperrors.NotFound("Transaction 0xdead not found")}

	rec := serveTransactions(repo, http.MethodGet, "/transactions/0xdead")
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Transaction 0xdead not found", body["message"])
}

func TestTransactionHandler_List_InvalidBlockHeight(t *testing.T) {
	rec := serveTransactions(&stubTransactionReader{}, http.MethodGet, "/transactions?block_height=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionHandler_ListByBlock_Empty(t *testing.T) {
	rec := serveTransactions(&stubTransactionReader{total: 0}, http.MethodGet, "/transactions/block/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionHandler_ListByAddress_EmptyIsOK(t *testing.T) {
	rec := serveTransactions(&stubTransactionReader{total: 0}, http.MethodGet, "/transactions/address/ST123")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, []any{}, body["data"])

	meta := body["meta"].(map[string]any)
	assert.Equal(t, "ST123", meta["address"])
	assert.Equal(t, float64(0), meta["total"])
}
