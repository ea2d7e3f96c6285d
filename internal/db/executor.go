// Package db provides PostgreSQL access and the cache-wrapped query
// executor that fronts it.
package db

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/cache"
	"github.com/kraxel-io/kraxel-api/internal/metrics"
	"github.com/kraxel-io/kraxel-api/pkg/apperrors"
)

// Rows is the result of one query: an ordered sequence of row
// mappings, column name to value.
type Rows = []map[string]any

// QueryFunc executes a query against a backing store. The executor
// treats it as opaque; any timeout or cancellation policy lives behind
// it.
type QueryFunc func(ctx context.Context, query string, params []any) (Rows, error)

// Options control caching for a single Execute call.
type Options struct {
	// BypassCache skips both the cache read and the cache write.
	BypassCache bool
	// TTL overrides the executor default when positive.
	TTL time.Duration
}

// Executor decorates a QueryFunc with result caching. A cached result
// is replayed without invoking the QueryFunc; a miss executes it and
// stores the outcome for the TTL window. Failed executions are never
// cached.
type Executor struct {
	run    QueryFunc
	store  *cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewExecutor wraps run with the shared cache store. defaultTTL falls
// back to the store default when non-positive.
func NewExecutor(run QueryFunc, store *cache.Store, defaultTTL time.Duration, logger *zap.Logger) *Executor {
	if defaultTTL <= 0 {
		defaultTTL = store.DefaultTTL()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Executor{
		run:    run,
		store:  store,
		ttl:    defaultTTL,
		logger: logger,
	}
}

// Query executes with default options (cached, default TTL). The
// request-scoped bypass from WithBypass still applies.
func (e *Executor) Query(ctx context.Context, query string, params ...any) (Rows, error) {
	return e.Execute(ctx, query, params, Options{})
}

// Execute runs query with params through the cache.
func (e *Executor) Execute(ctx context.Context, query string, params []any, opts Options) (Rows, error) {
	if opts.BypassCache || bypassFrom(ctx) {
		return e.run(ctx, query, params)
	}

	key, err := cache.ComputeKey(query, params)
	if err != nil {
		return nil, apperrors.Internal("compute cache key", err)
	}

	if v, ok := e.store.Get(key); ok {
		if rows, ok := v.(Rows); ok {
			metrics.CacheHits.Inc()
			e.logger.Debug("cache hit", zap.String("key", key[:8]))
			return rows, nil
		}
	}

	metrics.CacheMisses.Inc()
	e.logger.Debug("cache miss", zap.String("key", key[:8]))

	rows, err := e.run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = e.ttl
	}
	e.store.Set(key, rows, ttl)

	return rows, nil
}

type bypassKey struct{}

// WithBypass marks the context so every Execute call under it skips
// the cache entirely. Set by the HTTP layer for X-No-Cache requests.
func WithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

func bypassFrom(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}
