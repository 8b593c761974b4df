// Package stats computes lifetime platform aggregates. These are counts and
// group-bys with bounded result cardinality, so they carry no lookback window.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/atlas4d/gateway/internal/db"
	domstats "github.com/atlas4d/gateway/internal/domain/stats"
	"github.com/atlas4d/gateway/internal/repository/anomaly"
	"github.com/atlas4d/gateway/internal/repository/observation"
)

const (
	countObservationsSQL = "SELECT COUNT(*) FROM " + observation.Table
	countAnomaliesSQL    = "SELECT COUNT(*) FROM " + anomaly.Table
	sourceBreakdownSQL   = "SELECT source_type, COUNT(*) FROM " + observation.Table + " GROUP BY source_type"
	lastObservationSQL   = "SELECT MAX(t) FROM " + observation.Table
)

// Repo implements usecase/stats.Repository.
type Repo struct {
	exec db.Executor
}

// New creates a stats repository.
func New(exec db.Executor) *Repo {
	return &Repo{exec: exec}
}

// Summary runs the four aggregate queries on one connection. Any failure fails
// the whole summary; partial results are never returned.
func (r *Repo) Summary(ctx context.Context) (domstats.Summary, error) {
	var s domstats.Summary
	err := r.exec.WithConn(ctx, db.OpSummary, func(ctx context.Context, q db.Querier) error {
		if err := q.QueryRow(ctx, countObservationsSQL).Scan(&s.TotalObservations); err != nil {
			return &db.Error{Op: db.OpCountObservations, Err: err}
		}
		if err := q.QueryRow(ctx, countAnomaliesSQL).Scan(&s.TotalAnomalies); err != nil {
			return &db.Error{Op: db.OpCountAnomalies, Err: err}
		}

		rows, err := q.Query(ctx, sourceBreakdownSQL)
		if err != nil {
			return &db.Error{Op: db.OpSourceBreakdown, Err: err}
		}
		counts, err := pgx.CollectRows(rows, scanSourceCount)
		if err != nil {
			return &db.Error{Op: db.OpSourceBreakdown, Err: err}
		}
		s.Sources = domstats.Breakdown(counts)

		var last *time.Time
		if err := q.QueryRow(ctx, lastObservationSQL).Scan(&last); err != nil {
			return &db.Error{Op: db.OpLastObservation, Err: err}
		}
		s.LastObservation = last
		return nil
	})
	if err != nil {
		return domstats.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return s, nil
}

func scanSourceCount(row pgx.CollectableRow) (domstats.SourceCount, error) {
	var c domstats.SourceCount
	if err := row.Scan(&c.Source, &c.Count); err != nil {
		return domstats.SourceCount{}, err //nolint:wrapcheck // wrapped by the caller
	}
	return c, nil
}
