// Package dbtest provides in-memory stand-ins for db.Querier and db.Executor.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atlas4d/gateway/internal/db"
)

// Call records one statement sent to a Querier.
type Call struct {
	SQL  string
	Args []any
}

// Querier is a fn-field db.Querier that records every call.
type Querier struct {
	ExecFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row

	Calls []Call
}

// Exec implements db.Querier.
func (q *Querier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.Calls = append(q.Calls, Call{SQL: sql, Args: args})
	if q.ExecFn != nil {
		return q.ExecFn(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// Query implements db.Querier.
func (q *Querier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.Calls = append(q.Calls, Call{SQL: sql, Args: args})
	if q.QueryFn != nil {
		return q.QueryFn(ctx, sql, args...)
	}
	return NewRows(), nil
}

// QueryRow implements db.Querier.
func (q *Querier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.Calls = append(q.Calls, Call{SQL: sql, Args: args})
	if q.QueryRowFn != nil {
		return q.QueryRowFn(ctx, sql, args...)
	}
	return &Row{Err: pgx.ErrNoRows}
}

// Executor lends Q to every WithConn call. A non-nil Err is returned without running fn.
type Executor struct {
	Q   db.Querier
	Err error

	Ops []string
}

// WithConn implements db.Executor.
func (e *Executor) WithConn(ctx context.Context, op string, fn func(ctx context.Context, q db.Querier) error) error {
	e.Ops = append(e.Ops, op)
	if e.Err != nil {
		return e.Err
	}
	return fn(ctx, e.Q)
}

// Rows is a fixed result set. Each entry of Data is one row in scan order.
type Rows struct {
	Data    [][]any
	Failure error // returned by Err after iteration
	ScanErr error
	Closed  bool

	pos int
}

// NewRows creates a result set from rows of values.
func NewRows(data ...[]any) *Rows {
	return &Rows{Data: data}
}

// Close implements pgx.Rows.
func (r *Rows) Close() { r.Closed = true }

// Err implements pgx.Rows.
func (r *Rows) Err() error { return r.Failure }

// CommandTag implements pgx.Rows.
func (r *Rows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

// FieldDescriptions implements pgx.Rows.
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }

// Next implements pgx.Rows.
func (r *Rows) Next() bool {
	if r.Closed || r.pos >= len(r.Data) {
		return false
	}
	r.pos++
	return true
}

// Scan implements pgx.Rows.
func (r *Rows) Scan(dest ...any) error {
	if r.ScanErr != nil {
		return r.ScanErr
	}
	if r.pos == 0 || r.pos > len(r.Data) {
		return errors.New("dbtest: scan without current row")
	}
	return assignAll(dest, r.Data[r.pos-1])
}

// Values implements pgx.Rows.
func (r *Rows) Values() ([]any, error) {
	if r.pos == 0 || r.pos > len(r.Data) {
		return nil, errors.New("dbtest: no current row")
	}
	return r.Data[r.pos-1], nil
}

// RawValues implements pgx.Rows.
func (r *Rows) RawValues() [][]byte { return nil }

// Conn implements pgx.Rows.
func (r *Rows) Conn() *pgx.Conn { return nil }

// Row is a single-row result for QueryRow.
type Row struct {
	Values []any
	Err    error
}

// Scan implements pgx.Row.
func (r *Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assignAll(dest, r.Values)
}

func assignAll(dest, src []any) error {
	if len(dest) != len(src) {
		return fmt.Errorf("dbtest: %d destinations for %d values", len(dest), len(src))
	}
	for i := range dest {
		if err := assign(dest[i], src[i]); err != nil {
			return fmt.Errorf("dbtest: column %d: %w", i, err)
		}
	}
	return nil
}

// assign stores src into the pointer dest. A nil src zeroes the target.
func assign(dest, src any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return errors.New("destination must be a non-nil pointer")
	}
	target := dv.Elem()
	if src == nil {
		target.SetZero()
		return nil
	}
	sv := reflect.ValueOf(src)
	switch {
	case sv.Type().AssignableTo(target.Type()):
		target.Set(sv)
	case sv.Type().ConvertibleTo(target.Type()):
		target.Set(sv.Convert(target.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", src, target.Type())
	}
	return nil
}
