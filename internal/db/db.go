package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the statement surface of a pooled connection (*pgxpool.Conn satisfies it).
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Executor lends a pooled connection to fn and guarantees its release on every exit path.
// op names the operation for logs, metrics and error context.
type Executor interface {
	WithConn(ctx context.Context, op string, fn func(ctx context.Context, q Querier) error) error
}

// Query is a built statement: SQL text plus positional bind arguments.
type Query struct {
	SQL  string
	Args []any
}

// Run executes the query on q and returns the resulting rows.
func (qy *Query) Run(ctx context.Context, q Querier) (pgx.Rows, error) {
	return q.Query(ctx, qy.SQL, qy.Args...) //nolint:wrapcheck // callers wrap with op context
}
