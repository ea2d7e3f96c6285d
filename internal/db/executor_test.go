package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraxel-io/kraxel-api/internal/cache"
	"github.com/kraxel-io/kraxel-api/pkg/apperrors"
)

// countingQueryFunc returns canned rows and counts invocations.
func countingQueryFunc(rows Rows, err error) (QueryFunc, *int) {
	calls := 0
	return func(ctx context.Context, query string, params []any) (Rows, error) {
		calls++
		if err != nil {
			return nil, err
		}
		return rows, nil
	}, &calls
}

func newTestExecutor(t *testing.T, run QueryFunc) (*Executor, *cache.Store) {
	t.Helper()
	store := cache.New(100, time.Minute, nil)
	return NewExecutor(run, store, time.Minute, nil), store
}

func TestExecutor_CachesResults(t *testing.T) {
	want := Rows{{"id": int64(1)}}
	run, calls := countingQueryFunc(want, nil)
	exec, _ := newTestExecutor(t, run)

	ctx := context.Background()
	got1, err := exec.Query(ctx, "SELECT * FROM tokens WHERE symbol = $1", "KRX")
	require.NoError(t, err)
	got2, err := exec.Query(ctx, "SELECT * FROM tokens WHERE symbol = $1", "KRX")
	require.NoError(t, err)

	assert.Equal(t, want, got1)
	assert.Equal(t, want, got2)
	assert.Equal(t, 1, *calls, "second call must be served from the cache")
}

func TestExecutor_DistinctParamsExecuteSeparately(t *testing.T) {
	run, calls := countingQueryFunc(Rows{}, nil)
	exec, _ := newTestExecutor(t, run)

	ctx := context.Background()
	_, err := exec.Query(ctx, "SELECT 1", "a")
	require.NoError(t, err)
	_, err = exec.Query(ctx, "SELECT 1", "b")
	require.NoError(t, err)

	assert.Equal(t, 2, *calls)
}

func TestExecutor_Bypass(t *testing.T) {
	run, calls := countingQueryFunc(Rows{{"id": int64(1)}}, nil)
	exec, store := newTestExecutor(t, run)

	ctx := context.Background()
	opts := Options{BypassCache: true}
	_, err := exec.Execute(ctx, "SELECT 1", []any{"a"}, opts)
	require.NoError(t, err)
	_, err = exec.Execute(ctx, "SELECT 1", []any{"a"}, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, *calls, "bypass must execute every time")
	assert.Equal(t, 0, store.Len(), "bypass must not populate the cache")
}

func TestExecutor_BypassSkipsExistingEntry(t *testing.T) {
	run, calls := countingQueryFunc(Rows{{"id": int64(1)}}, nil)
	exec, store := newTestExecutor(t, run)

	ctx := context.Background()
	_, err := exec.Query(ctx, "SELECT 1", "a")
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	_, err = exec.Execute(ctx, "SELECT 1", []any{"a"}, Options{BypassCache: true})
	require.NoError(t, err)

	assert.Equal(t, 2, *calls, "bypass must ignore the cached entry")
}

func TestExecutor_ContextBypass(t *testing.T) {
	run, calls := countingQueryFunc(Rows{}, nil)
	exec, store := newTestExecutor(t, run)

	ctx := WithBypass(context.Background())
	_, err := exec.Query(ctx, "SELECT 1")
	require.NoError(t, err)
	_, err = exec.Query(ctx, "SELECT 1")
	require.NoError(t, err)

	assert.Equal(t, 2, *calls)
	assert.Equal(t, 0, store.Len())
}

func TestExecutor_ErrorsPropagateAndAreNotCached(t *testing.T) {
	queryErr := errors.New("relation does not exist")
	run, calls := countingQueryFunc(nil, queryErr)
	exec, store := newTestExecutor(t, run)

	ctx := context.Background()
	_, err := exec.Query(ctx, "SELECT * FROM missing")
	require.ErrorIs(t, err, queryErr)
	assert.Equal(t, 0, store.Len(), "failures must never be memoized")

	_, err = exec.Query(ctx, "SELECT * FROM missing")
	require.ErrorIs(t, err, queryErr)
	assert.Equal(t, 2, *calls, "each call after a failure must re-execute")
}

func TestExecutor_KeyComputationFailsFast(t *testing.T) {
	run, calls := countingQueryFunc(Rows{}, nil)
	exec, _ := newTestExecutor(t, run)

	_, err := exec.Query(context.Background(), "SELECT 1", make(chan int))
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.TypeInternal, appErr.Type)
	assert.Equal(t, 0, *calls, "an unstable key must not reach the database")
}

func TestExecutor_TTLOverride(t *testing.T) {
	run, _ := countingQueryFunc(Rows{{"id": int64(1)}}, nil)
	store := cache.New(100, time.Minute, nil)
	exec := NewExecutor(run, store, time.Minute, nil)

	_, err := exec.Execute(context.Background(), "SELECT 1", nil, Options{TTL: time.Hour})
	require.NoError(t, err)

	stats := store.Stats()
	require.Len(t, stats.TopEntries, 1)
	assert.Greater(t, stats.TopEntries[0].ExpiresIn, int((30 * time.Minute).Seconds()))
}
