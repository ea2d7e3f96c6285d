package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/db"
	"github.com/kraxel-io/kraxel-api/pkg/apperrors"
)

const tokenColumns = `
	contract_principal,
	asset_identifier,
	name,
	symbol,
	image_uri,
	decimals_from_contract,
	total_supply_from_contract`

// TokenRepository reads token metadata.
type TokenRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewTokenRepository creates a token reader over q.
func NewTokenRepository(q Querier, logger *zap.Logger) *TokenRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenRepository{q: q, logger: logger}
}

// List returns tokens ordered by symbol then name, with the total count.
func (r *TokenRepository) List(ctx context.Context, limit, offset int) (db.Rows, int64, error) {
	countRows, err := r.q.Query(ctx, "SELECT COUNT(*) AS total FROM tokens")
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT" + tokenColumns + `
	FROM tokens
	ORDER BY symbol, name
	LIMIT $1 OFFSET $2`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return rows, totalFrom(countRows), nil
}

// Get returns one token by contract principal.
func (r *TokenRepository) Get(ctx context.Context, contractPrincipal string) (map[string]any, error) {
	query := "SELECT" + tokenColumns + `
	FROM tokens
	WHERE contract_principal = $1`

	rows, err := r.q.Query(ctx, query, contractPrincipal)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("Token with contract principal %s not found", contractPrincipal)
	}

	return rows[0], nil
}
