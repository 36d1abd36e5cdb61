package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the relational database handle the task store runs its
// queries against. Both *sql.DB and *sql.Tx satisfy it, so the same store
// works inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
