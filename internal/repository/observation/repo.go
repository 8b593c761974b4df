package observation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/atlas4d/gateway/internal/db"
	"github.com/atlas4d/gateway/internal/domain"
	"github.com/atlas4d/gateway/internal/domain/filter"
	domobs "github.com/atlas4d/gateway/internal/domain/observation"
)

// Table is the observation store relation.
const Table = "atlas4d.observations_core"

var listColumns = []string{"id", "t", "lat", "lon", "source_type", "speed_ms", "heading_deg"}

const spatialPredicate = "ST_DWithin(geom::geography, " +
	"ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)"

// Primary key lookup: at most one row.
const getSQL = `SELECT id, t, lat, lon, source_type, speed_ms, heading_deg, metadata
FROM ` + Table + ` WHERE id = $1`

// geom is built from the same $2/$3 parameters bound to lat/lon.
const insertSQL = `INSERT INTO ` + Table + `
(t, lat, lon, geom, source_type, speed_ms, heading_deg, metadata)
VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($3, $2), 4326), $4, $5, $6, $7::jsonb)
RETURNING id`

// ListQuery builds the time-windowed scan, narrowed to a geodesic radius when f
// carries a center point. Rows are newest first.
func ListQuery(f filter.Observations) (*db.Query, error) {
	b := db.Select(listColumns...).
		From(Table).
		Within("t", f.Window())
	if c := f.Center(); c != nil {
		b = b.Where(spatialPredicate, c.Lon(), c.Lat(), c.RadiusMeters())
	}
	q, err := b.OrderByDesc("t").Limit(f.Limit()).Build()
	if err != nil {
		return nil, fmt.Errorf("build observation query: %w", err)
	}
	return q, nil
}

// Repo implements usecase/observation.Repository.
type Repo struct {
	exec db.Executor
}

// New creates an observation repository.
func New(exec db.Executor) *Repo {
	return &Repo{exec: exec}
}

// List runs the observation scan for f.
func (r *Repo) List(ctx context.Context, f filter.Observations) ([]domobs.Observation, error) {
	q, err := ListQuery(f)
	if err != nil {
		return nil, err
	}

	op := db.OpListObservations
	if f.Spatial() {
		op = db.OpNearbyObservations
	}

	var out []domobs.Observation
	err = r.exec.WithConn(ctx, op, func(ctx context.Context, conn db.Querier) error {
		rows, err := q.Run(ctx, conn)
		if err != nil {
			return err //nolint:wrapcheck // classified by the executor
		}
		out, err = pgx.CollectRows(rows, scanObservation)
		return err //nolint:wrapcheck // classified by the executor
	})
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	if out == nil {
		out = []domobs.Observation{}
	}
	return out, nil
}

// Get returns one observation including its metadata.
func (r *Repo) Get(ctx context.Context, id int64) (domobs.Observation, error) {
	var o domobs.Observation
	err := r.exec.WithConn(ctx, db.OpGetObservation, func(ctx context.Context, conn db.Querier) error {
		var (
			rec      record
			metadata map[string]any
		)
		err := conn.QueryRow(ctx, getSQL, id).Scan(
			&rec.id, &rec.t, &rec.lat, &rec.lon, &rec.sourceType, &rec.speedMS, &rec.headingDeg, &metadata,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err //nolint:wrapcheck // classified by the executor
		}
		o = rec.toDomain(metadata)
		return nil
	})
	if err != nil {
		return domobs.Observation{}, fmt.Errorf("get observation %d: %w", id, err)
	}
	return o, nil
}

// Insert persists o and returns the store-assigned id.
func (r *Repo) Insert(ctx context.Context, o *domobs.Observation) (int64, error) {
	metadata := o.Metadata()
	if metadata == nil {
		metadata = map[string]any{}
	}

	var id int64
	err := r.exec.WithConn(ctx, db.OpInsertObservation, func(ctx context.Context, conn db.Querier) error {
		return conn.QueryRow(ctx, insertSQL, //nolint:wrapcheck // classified by the executor
			o.Timestamp(), o.Lat(), o.Lon(), o.SourceType(), o.SpeedMS(), o.HeadingDeg(), metadata,
		).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("insert observation: %w", err)
	}
	return id, nil
}

type record struct {
	id         int64
	t          *time.Time
	lat        float64
	lon        float64
	sourceType *string
	speedMS    *float64
	headingDeg *float64
}

func (r *record) toDomain(metadata map[string]any) domobs.Observation {
	var ts time.Time
	if r.t != nil {
		ts = *r.t
	}
	return domobs.Reconstruct(r.id, ts, r.lat, r.lon, r.sourceType, r.speedMS, r.headingDeg, metadata)
}

func scanObservation(row pgx.CollectableRow) (domobs.Observation, error) {
	var rec record
	if err := row.Scan(
		&rec.id, &rec.t, &rec.lat, &rec.lon, &rec.sourceType, &rec.speedMS, &rec.headingDeg,
	); err != nil {
		return domobs.Observation{}, err //nolint:wrapcheck // wrapped by the caller
	}
	return rec.toDomain(nil), nil
}
