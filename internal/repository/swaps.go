package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/db"
)

// SwapRepository reads swap transactions.
type SwapRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewSwapRepository creates a swap reader over q.
func NewSwapRepository(q Querier, logger *zap.Logger) *SwapRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapRepository{q: q, logger: logger}
}

// SwapFilter narrows swap listings. Dates are YYYY-MM-DD and inclusive:
// EndDate extends to the last second of that day.
type SwapFilter struct {
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}

// SwapDetailFilter narrows swaps by fields inside the swap_details
// JSONB payload, on top of the usual date range and pagination.
type SwapDetailFilter struct {
	TokenX    string
	TokenY    string
	MinAmount *float64
	MaxAmount *float64
	SwapFilter
}

// swapWhere appends the date-range conditions to conds, numbering
// placeholders after the already-collected params.
func swapWhere(conds []string, params []any, f SwapFilter) ([]string, []any) {
	if f.StartDate != "" {
		params = append(params, f.StartDate)
		conds = append(conds, fmt.Sprintf(
			"CAST(block_time AS BIGINT) >= EXTRACT(EPOCH FROM TO_TIMESTAMP($%d, 'YYYY-MM-DD'))",
			len(params)))
	}
	if f.EndDate != "" {
		params = append(params, f.EndDate)
		conds = append(conds, fmt.Sprintf(
			"CAST(block_time AS BIGINT) <= EXTRACT(EPOCH FROM TO_TIMESTAMP($%d, 'YYYY-MM-DD') + INTERVAL '1 day' - INTERVAL '1 second')",
			len(params)))
	}
	return conds, params
}

// swapContractCond appends the contract-principal match. The match is
// a substring search across swap_details because a contract can appear
// as in_asset, out_asset or contract_address of any element.
func swapContractCond(conds []string, params []any, contractPrincipal string) ([]string, []any) {
	like := "%" + contractPrincipal + "%"
	params = append(params, like, like, like, like)
	n := len(params)
	conds = append(conds, fmt.Sprintf(`(
		swap_details::text ILIKE $%d
		OR EXISTS (
			SELECT 1
			FROM jsonb_array_elements(swap_details) AS swap_item
			WHERE
				swap_item->>'in_asset' LIKE $%d
				OR swap_item->>'out_asset' LIKE $%d
				OR swap_item->>'contract_address' LIKE $%d
		)
	)`, n-3, n-2, n-1, n))
	return conds, params
}

func (r *SwapRepository) list(ctx context.Context, conds []string, params []any, limit, offset int) (db.Rows, int64, error) {
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	countRows, err := r.q.Query(ctx, "SELECT COUNT(*) AS total FROM swaps"+where, params...)
	if err != nil {
		return nil, 0, err
	}
	total := totalFrom(countRows)

	query := fmt.Sprintf(`
	SELECT tx_id, user_address, block_time, swap_details
	FROM swaps%s
	ORDER BY block_time DESC, tx_id
	LIMIT $%d OFFSET $%d`, where, len(params)+1, len(params)+2)
	params = append(params, limit, offset)

	rows, err := r.q.Query(ctx, query, params...)
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// ListRecent returns the most recent swaps, optionally date-bounded.
func (r *SwapRepository) ListRecent(ctx context.Context, f SwapFilter) (db.Rows, int64, error) {
	conds, params := swapWhere(nil, nil, f)
	return r.list(ctx, conds, params, f.Limit, f.Offset)
}

// ListByContract returns swaps whose details reference the contract
// principal on either leg, optionally narrowed to one user.
func (r *SwapRepository) ListByContract(ctx context.Context, contractPrincipal, userAddress string, f SwapFilter) (db.Rows, int64, error) {
	conds, params := swapContractCond(nil, nil, contractPrincipal)

	if userAddress != "" {
		params = append(params, userAddress)
		conds = append(conds, fmt.Sprintf("user_address = $%d", len(params)))
	}
	conds, params = swapWhere(conds, params, f)

	return r.list(ctx, conds, params, f.Limit, f.Offset)
}

// ListByAddressContract returns swaps filtered by user address and/or
// contract principal, both optional. With no filters at all the result
// is clamped to the last seven days so the endpoint cannot dump the
// whole table.
func (r *SwapRepository) ListByAddressContract(ctx context.Context, userAddress, contractPrincipal string, f SwapFilter) (db.Rows, int64, error) {
	var conds []string
	var params []any

	if userAddress != "" {
		params = append(params, userAddress)
		conds = append(conds, fmt.Sprintf("user_address = $%d", len(params)))
	}
	if contractPrincipal != "" {
		conds, params = swapContractCond(conds, params, contractPrincipal)
	}
	conds, params = swapWhere(conds, params, f)

	if len(conds) == 0 {
		conds = append(conds,
			"CAST(block_time AS BIGINT) >= EXTRACT(EPOCH FROM NOW() - INTERVAL '7 days')")
	}

	return r.list(ctx, conds, params, f.Limit, f.Offset)
}

// Filter returns swaps matching fields inside swap_details. Token
// matches accept either a top-level key or the serialized form, since
// both shapes occur in the data.
func (r *SwapRepository) Filter(ctx context.Context, f SwapDetailFilter) (db.Rows, int64, error) {
	conds, params := swapWhere(nil, nil, f.SwapFilter)

	if f.TokenX != "" {
		params = append(params, f.TokenX, `%"token_x":"`+f.TokenX+`"%`)
		conds = append(conds, fmt.Sprintf(
			"(swap_details->>'token_x' = $%d OR swap_details::text ILIKE $%d)",
			len(params)-1, len(params)))
	}
	if f.TokenY != "" {
		params = append(params, f.TokenY, `%"token_y":"`+f.TokenY+`"%`)
		conds = append(conds, fmt.Sprintf(
			"(swap_details->>'token_y' = $%d OR swap_details::text ILIKE $%d)",
			len(params)-1, len(params)))
	}
	if f.MinAmount != nil {
		params = append(params, *f.MinAmount)
		conds = append(conds, fmt.Sprintf(
			"(swap_details->>'amount')::numeric >= $%d", len(params)))
	}
	if f.MaxAmount != nil {
		params = append(params, *f.MaxAmount)
		conds = append(conds, fmt.Sprintf(
			"(swap_details->>'amount')::numeric <= $%d", len(params)))
	}

	return r.list(ctx, conds, params, f.Limit, f.Offset)
}

// Stats aggregates swap counts and unique users per period (day, week
// or month), optionally bounded by dates and a token substring.
func (r *SwapRepository) Stats(ctx context.Context, period, token string, f SwapFilter) (map[string]any, error) {
	// period is interpolated into the query, so only known values pass.
	trunc := "day"
	switch period {
	case "week", "month":
		trunc = period
	}

	conds, params := swapWhere(nil, nil, f)
	if token != "" {
		params = append(params, "%"+token+"%")
		conds = append(conds, fmt.Sprintf("swap_details::text ILIKE $%d", len(params)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	periodQuery := fmt.Sprintf(`
	SELECT
		date_trunc('%s', TO_TIMESTAMP(CAST(block_time AS BIGINT))) AS time_period,
		COUNT(*) AS swap_count,
		COUNT(DISTINCT user_address) AS unique_users
	FROM swaps%s
	GROUP BY time_period
	ORDER BY time_period DESC`, trunc, where)

	periods, err := r.q.Query(ctx, periodQuery, params...)
	if err != nil {
		return nil, err
	}
	if periods == nil {
		periods = db.Rows{}
	}

	totalsQuery := `
	SELECT
		COUNT(*) AS total_swaps,
		COUNT(DISTINCT user_address) AS total_unique_users,
		COUNT(DISTINCT tx_id) AS total_transactions
	FROM swaps` + where

	totals, err := r.q.Query(ctx, totalsQuery, params...)
	if err != nil {
		return nil, err
	}

	totalStats := map[string]any{}
	if len(totals) > 0 {
		totalStats = totals[0]
	}

	return map[string]any{
		"period_stats": periods,
		"total_stats":  totalStats,
	}, nil
}

// ListByUser returns the swaps of one user address.
func (r *SwapRepository) ListByUser(ctx context.Context, userAddress string, f SwapFilter) (db.Rows, int64, error) {
	params := []any{userAddress}
	conds := []string{"user_address = $1"}
	conds, params = swapWhere(conds, params, f)

	return r.list(ctx, conds, params, f.Limit, f.Offset)
}
