package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx operations repositories run against. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so repository methods accept either a
// pooled connection or an explicit transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Database provides pooled access and transactional execution.
type Database interface {
	// Pool returns the underlying connection pool for non-transactional reads.
	Pool() *pgxpool.Pool

	// WithTransaction executes fn within a database transaction, rolling back
	// on error or panic.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}
