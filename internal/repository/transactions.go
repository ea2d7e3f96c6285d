package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/db"
	"github.com/kraxel-io/kraxel-api/pkg/apperrors"
)

// txColumns projects the indexed transaction row plus the fields the
// API lifts out of the raw JSON payload.
const txColumns = `
	t.tx_id,
	t.block_height,
	t.events_processed,
	(t.raw_data->>'block_time')::integer AS block_time,
	t.raw_data->>'fee_rate' AS fee_rate,
	COALESCE((t.raw_data->>'event_count')::integer, 0) AS event_count,
	(SELECT COUNT(*) FROM events e WHERE e.tx_id = t.tx_id) AS actual_event_count`

// TransactionRepository reads transactions and their events.
type TransactionRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewTransactionRepository creates a transaction reader over q.
func NewTransactionRepository(q Querier, logger *zap.Logger) *TransactionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionRepository{q: q, logger: logger}
}

// TransactionFilter narrows List results.
type TransactionFilter struct {
	BlockHeight *int64
	Limit       int
	Offset      int
}

// GetByID returns one transaction, including its raw payload.
func (r *TransactionRepository) GetByID(ctx context.Context, txID string) (map[string]any, error) {
	query := `
	SELECT
		tx_id,
		block_height,
		raw_data,
		events_processed,
		(raw_data->>'block_time')::integer AS block_time,
		raw_data->>'fee_rate' AS fee_rate,
		COALESCE((raw_data->>'event_count')::integer, 0) AS event_count
	FROM transactions
	WHERE tx_id = $1`

	rows, err := r.q.Query(ctx, query, txID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("Transaction %s not found", txID)
	}

	return rows[0], nil
}

// Events returns the events of one transaction in index order.
func (r *TransactionRepository) Events(ctx context.Context, txID string) (db.Rows, error) {
	query := `
	SELECT tx_id, event_index, event_type, event_data
	FROM events
	WHERE tx_id = $1
	ORDER BY event_index`

	return r.q.Query(ctx, query, txID)
}

// List returns transactions newest-block first with the total count.
func (r *TransactionRepository) List(ctx context.Context, f TransactionFilter) (db.Rows, int64, error) {
	countQuery := "SELECT COUNT(*) AS total FROM transactions"
	var countParams []any
	if f.BlockHeight != nil {
		countQuery += " WHERE block_height = $1"
		countParams = append(countParams, *f.BlockHeight)
	}

	countRows, err := r.q.Query(ctx, countQuery, countParams...)
	if err != nil {
		return nil, 0, err
	}
	total := totalFrom(countRows)

	query := "SELECT" + txColumns + "\n\tFROM transactions t"
	var params []any
	if f.BlockHeight != nil {
		query += " WHERE t.block_height = $1"
		params = append(params, *f.BlockHeight)
	}
	query += fmt.Sprintf(" ORDER BY t.block_height DESC, t.tx_id LIMIT $%d OFFSET $%d",
		len(params)+1, len(params)+2)
	params = append(params, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, params...)
	if err != nil {
		return nil, 0, err
	}
	rows = normalizeEventCounts(rows)

	return rows, total, nil
}

// ListByBlock returns the transactions of one block ordered by tx_id.
func (r *TransactionRepository) ListByBlock(ctx context.Context, blockHeight int64, limit, offset int) (db.Rows, int64, error) {
	countRows, err := r.q.Query(ctx,
		"SELECT COUNT(*) AS total FROM transactions WHERE block_height = $1", blockHeight)
	if err != nil {
		return nil, 0, err
	}
	total := totalFrom(countRows)

	query := "SELECT" + txColumns + `
	FROM transactions t
	WHERE t.block_height = $1
	ORDER BY t.tx_id
	LIMIT $2 OFFSET $3`

	rows, err := r.q.Query(ctx, query, blockHeight, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	rows = normalizeEventCounts(rows)

	return rows, total, nil
}

// ListByAddress returns the latest transactions sent by address.
func (r *TransactionRepository) ListByAddress(ctx context.Context, address string, limit, offset int) (db.Rows, int64, error) {
	query := "SELECT" + txColumns + `
	FROM transactions t
	WHERE t.raw_data->>'sender_address' = $1
	ORDER BY t.block_height DESC, t.tx_id
	LIMIT $2 OFFSET $3`

	rows, err := r.q.Query(ctx, query, address, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	rows = normalizeEventCounts(rows)

	countRows, err := r.q.Query(ctx,
		"SELECT COUNT(*) AS total FROM transactions WHERE raw_data->>'sender_address' = $1", address)
	if err != nil {
		return nil, 0, err
	}

	return rows, totalFrom(countRows), nil
}

// normalizeEventCounts folds the live event count into event_count,
// keeping the value carried in raw_data when no events are indexed
// yet. Rows are copied rather than mutated: the input may be shared
// with the cache and with concurrent requests.
func normalizeEventCounts(rows db.Rows) db.Rows {
	out := make(db.Rows, len(rows))
	for i, row := range rows {
		copied := make(map[string]any, len(row))
		for k, v := range row {
			copied[k] = v
		}
		if actual, ok := copied["actual_event_count"].(int64); ok {
			delete(copied, "actual_event_count")
			if actual != 0 {
				copied["event_count"] = actual
			}
		}
		out[i] = copied
	}
	return out
}
