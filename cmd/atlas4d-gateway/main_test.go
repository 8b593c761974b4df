package main

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/atlas4d/gateway/internal/db"
	"github.com/atlas4d/gateway/internal/db/dbtest"
)

func TestMigrate_ReturnsStoreError(t *testing.T) {
	storeErr := errors.New("store unavailable")
	exec := &dbtest.Executor{Err: storeErr}

	err := migrate(context.Background(), exec, zap.NewNop())
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if len(exec.Ops) != 1 || exec.Ops[0] != db.OpMigrate {
		t.Errorf("ops = %v, want [%s]", exec.Ops, db.OpMigrate)
	}
}

func TestMigrate_ReturnsExecError(t *testing.T) {
	execErr := errors.New("syntax error")
	q := &dbtest.Querier{
		ExecFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, execErr
		},
	}

	err := migrate(context.Background(), &dbtest.Executor{Q: q}, zap.NewNop())
	if !errors.Is(err, execErr) {
		t.Fatalf("expected wrapped exec error, got %v", err)
	}
}

func TestMigrate_AppliesWithDeadline(t *testing.T) {
	var hadDeadline bool
	q := &dbtest.Querier{
		ExecFn: func(ctx context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			_, hadDeadline = ctx.Deadline()
			return pgconn.CommandTag{}, nil
		},
	}

	if err := migrate(context.Background(), &dbtest.Executor{Q: q}, zap.NewNop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Calls) == 0 {
		t.Fatal("expected migration statements")
	}
	if !hadDeadline {
		t.Error("migration ran without a deadline")
	}
}
