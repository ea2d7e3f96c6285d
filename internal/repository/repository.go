// Package repository holds the read-only SQL for the chain-index and
// price-tracker databases. Every query flows through the cache-wrapped
// executor.
package repository

import (
	"context"

	"github.com/kraxel-io/kraxel-api/internal/db"
)

// Querier is the slice of the executor the repositories need.
type Querier interface {
	Query(ctx context.Context, query string, params ...any) (db.Rows, error)
}

// totalFrom extracts the aggregate count from a COUNT(*) AS total row.
func totalFrom(rows db.Rows) int64 {
	if len(rows) == 0 {
		return 0
	}
	if v, ok := rows[0]["total"].(int64); ok {
		return v
	}
	return 0
}
