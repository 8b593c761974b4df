package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/atlas4d/gateway/internal/db"
	domanomaly "github.com/atlas4d/gateway/internal/domain/anomaly"
	"github.com/atlas4d/gateway/internal/domain/filter"
	"github.com/atlas4d/gateway/internal/repository/observation"
)

// Table is the anomaly store relation.
const Table = "atlas4d.anomalies"

// ListQuery builds the severity-filtered scan. Anomalies whose observation is
// missing are kept with NULL position columns.
func ListQuery(f filter.Anomalies) (*db.Query, error) {
	q, err := db.Select(
		"a.id", "a.anomaly_type", "a.severity", "a.score", "a.detected_at",
		"o.lat", "o.lon", "o.source_type",
	).
		From(Table+" a").
		LeftJoin(observation.Table+" o", "a.observation_id = o.id").
		Within("a.detected_at", f.Window()).
		Where("a.severity >= ?", f.MinSeverity()).
		OrderByDesc("a.detected_at").
		Limit(f.Limit()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build anomaly query: %w", err)
	}
	return q, nil
}

// Repo implements usecase/anomaly.Repository.
type Repo struct {
	exec db.Executor
}

// New creates an anomaly repository.
func New(exec db.Executor) *Repo {
	return &Repo{exec: exec}
}

// List runs the anomaly scan for f.
func (r *Repo) List(ctx context.Context, f filter.Anomalies) ([]domanomaly.Anomaly, error) {
	q, err := ListQuery(f)
	if err != nil {
		return nil, err
	}

	var out []domanomaly.Anomaly
	err = r.exec.WithConn(ctx, db.OpListAnomalies, func(ctx context.Context, conn db.Querier) error {
		rows, err := q.Run(ctx, conn)
		if err != nil {
			return err //nolint:wrapcheck // classified by the executor
		}
		out, err = pgx.CollectRows(rows, scanAnomaly)
		return err //nolint:wrapcheck // classified by the executor
	})
	if err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}
	if out == nil {
		out = []domanomaly.Anomaly{}
	}
	return out, nil
}

func scanAnomaly(row pgx.CollectableRow) (domanomaly.Anomaly, error) {
	var (
		id         int64
		kind       string
		severity   int
		score      *float64
		detectedAt time.Time
		lat, lon   *float64
		sourceType *string
	)
	if err := row.Scan(&id, &kind, &severity, &score, &detectedAt, &lat, &lon, &sourceType); err != nil {
		return domanomaly.Anomaly{}, err //nolint:wrapcheck // wrapped by the caller
	}
	var s float64
	if score != nil {
		s = *score
	}
	return domanomaly.Reconstruct(id, kind, severity, s, detectedAt, lat, lon, sourceType), nil
}
