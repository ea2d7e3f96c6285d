package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/interfaces/http/rest/handlers"
	"github.com/kraxel-io/kraxel-api/internal/cache"
	"github.com/kraxel-io/kraxel-api/internal/db"
	"github.com/kraxel-io/kraxel-api/internal/repository"
)

// newTestServer wires the real stack (router, handlers, repositories,
// executor, cache) over a fake database.
func newTestServer(t *testing.T) (http.Handler, *cache.Store, *int) {
	t.Helper()

	calls := 0
	run := func(ctx context.Context, query string, params []any) (db.Rows, error) {
		calls++
		if strings.Contains(query, "COUNT(*)") {
			return db.Rows{{"total": int64(1)}}, nil
		}
		return db.Rows{{"symbol": "KRX", "name": "Kraxel"}}, nil
	}

	store := cache.New(100, time.Minute, nil)
	exec := db.NewExecutor(run, store, time.Minute, nil)

	router := NewRouter(
		handlers.NewTransactionHandler(repository.NewTransactionRepository(exec, nil), nil),
		handlers.NewTokenHandler(repository.NewTokenRepository(exec, nil), nil),
		handlers.NewSwapHandler(repository.NewSwapRepository(exec, nil), nil),
		handlers.NewPriceHandler(repository.NewPriceRepository(exec, nil), nil),
		handlers.NewAdminHandler(store, nil),
		[]string{"http://localhost:3000"},
		500*time.Millisecond,
		zap.NewNop(),
	)

	return router.Setup(), store, &calls
}

func TestRouter_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"success"`)
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time-Ms"))
}

func TestRouter_Root(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Kraxel API", body.Data["name"])
}

func TestRouter_NotFoundEnvelope(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestRouter_QueriesAreCachedAcrossRequests(t *testing.T) {
	srv, _, calls := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tokens", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// One count query plus one list query, then cache hits only.
	assert.Equal(t, 2, *calls)
}

func TestRouter_NoCacheHeaderBypasses(t *testing.T) {
	srv, store, calls := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tokens", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, *calls)
	require.Equal(t, 2, store.Len())

	req := httptest.NewRequest(http.MethodGet, "/tokens", nil)
	req.Header.Set("X-No-Cache", "true")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 4, *calls, "bypassed request must hit the database again")
	assert.Equal(t, 2, store.Len(), "bypassed request must not touch the store")
}

func TestRouter_SwapStats(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swaps/stats?period=week", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Data, "period_stats")
	assert.Contains(t, body.Data, "total_stats")
}

func TestRouter_PriceHistoryAndLatestRouting(t *testing.T) {
	srv, _, calls := newTestServer(t)

	// /prices/latest must hit the static route: one query, no count.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prices/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, *calls)

	// A contract principal falls through to the history route, which
	// runs a count plus the listing.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prices/SP000.wstx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, *calls)

	var body struct {
		Meta map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SP000.wstx", body.Meta["contract_principal"])
}

func TestRouter_AdminClearEmptiesCache(t *testing.T) {
	srv, store, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tokens", nil))
	require.Equal(t, 2, store.Len())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/cache/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.Len())
}
