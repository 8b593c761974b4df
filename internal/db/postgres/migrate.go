package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"github.com/atlas4d/gateway/internal/db"
)

//go:embed sql/*.sql
var migrationFS embed.FS

// MigrationNames returns the embedded migration files in apply order.
func MigrationNames() ([]string, error) {
	entries, err := migrationFS.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations applies every embedded migration in lexical order.
// Migrations are idempotent (IF NOT EXISTS), so re-running is safe.
func RunMigrations(ctx context.Context, q db.Querier) error {
	names, err := MigrationNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		body, err := migrationFS.ReadFile("sql/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := q.Exec(ctx, string(body)); err != nil {
			return &db.Error{Op: db.OpMigrate, Err: fmt.Errorf("exec migration %s: %w", name, err)}
		}
	}

	return nil
}
