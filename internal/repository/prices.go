package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/db"
)

// PriceRepository reads token prices from the price-tracker database.
// It runs on its own executor (separate pool) but shares the
// process-wide cache store with the chain-index repositories.
type PriceRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewPriceRepository creates a price reader over q.
func NewPriceRepository(q Querier, logger *zap.Logger) *PriceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceRepository{q: q, logger: logger}
}

// List returns price entries newest-update first, optionally filtered
// to one contract principal.
func (r *PriceRepository) List(ctx context.Context, contractPrincipal string, limit, offset int) (db.Rows, int64, error) {
	where := ""
	var params []any
	if contractPrincipal != "" {
		where = " WHERE contract_principal = $1"
		params = append(params, contractPrincipal)
	}

	countRows, err := r.q.Query(ctx, "SELECT COUNT(*) AS total FROM wprices"+where, params...)
	if err != nil {
		return nil, 0, err
	}
	total := totalFrom(countRows)

	query := fmt.Sprintf(`
	SELECT contract_principal, price, tvl
	FROM wprices%s
	ORDER BY updated_at DESC
	LIMIT $%d OFFSET $%d`, where, len(params)+1, len(params)+2)
	params = append(params, limit, offset)

	rows, err := r.q.Query(ctx, query, params...)
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// History returns the price history of one contract principal, newest
// entry first, with the total count.
func (r *PriceRepository) History(ctx context.Context, contractPrincipal string, limit, offset int) (db.Rows, int64, error) {
	countRows, err := r.q.Query(ctx,
		"SELECT COUNT(*) AS total FROM wprices WHERE contract_principal = $1", contractPrincipal)
	if err != nil {
		return nil, 0, err
	}

	query := `
	SELECT contract_principal, price, tvl, created_at
	FROM wprices
	WHERE contract_principal = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := r.q.Query(ctx, query, contractPrincipal, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return rows, totalFrom(countRows), nil
}

// Latest returns the most recent price row per contract principal.
func (r *PriceRepository) Latest(ctx context.Context) (db.Rows, error) {
	query := `
	WITH latest_prices AS (
		SELECT DISTINCT ON (contract_principal)
			contract_principal, price, tvl, updated_at
		FROM wprices
		ORDER BY contract_principal, updated_at DESC
	)
	SELECT contract_principal, price, tvl
	FROM latest_prices
	ORDER BY contract_principal`

	return r.q.Query(ctx, query)
}
