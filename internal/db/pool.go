package db

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/pkg/apperrors"
)

// PoolConfig holds connection pool tuning.
type PoolConfig struct {
	MinConns         int
	MaxConns         int
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
}

// Pool wraps a pgx connection pool and exposes a QueryFunc that
// returns rows as ordered column-name mappings.
type Pool struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPool connects to dsn with the given tuning. The statement timeout
// is applied as a session parameter on every connection so a runaway
// query cannot hold a pool slot indefinitely.
func NewPool(ctx context.Context, dsn string, cfg PoolConfig, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperrors.Database("parse database config", err)
	}

	pc.MinConns = int32(cfg.MinConns)
	pc.MaxConns = int32(cfg.MaxConns)
	if cfg.ConnectTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] =
			strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, apperrors.Database("create connection pool", err)
	}

	logger.Info("database pool initialized",
		zap.String("database", pc.ConnConfig.Database),
		zap.Int32("min_conns", pc.MinConns),
		zap.Int32("max_conns", pc.MaxConns),
	)

	return &Pool{pool: pool, logger: logger}, nil
}

// Run executes query with positional parameters and collects every row
// into a column-name map. It satisfies QueryFunc.
func (p *Pool) Run(ctx context.Context, query string, params []any) (Rows, error) {
	rows, err := p.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, apperrors.Database("execute query", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, apperrors.Database("collect rows", err)
	}

	return results, nil
}

// Ping verifies connectivity, for readiness checks.
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases all pool connections.
func (p *Pool) Close() {
	p.pool.Close()
}
