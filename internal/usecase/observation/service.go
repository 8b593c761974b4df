package observation

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/atlas4d/gateway/internal/domain"
	"github.com/atlas4d/gateway/internal/domain/filter"
	domobs "github.com/atlas4d/gateway/internal/domain/observation"
)

// Defaults fill filter parameters the caller omitted.
type Defaults struct {
	RadiusKm     float64
	Hours        int
	Limit        int
	FeatureLimit int
}

// DefaultDefaults returns 10 km, 24 h, 100 rows and 500 features.
func DefaultDefaults() Defaults {
	return Defaults{RadiusKm: 10, Hours: 24, Limit: 100, FeatureLimit: 500}
}

// ListParams are the raw list inputs; nil means "use the default".
type ListParams struct {
	Lat      *float64
	Lon      *float64
	RadiusKm *float64
	Hours    *int
	Limit    *int
}

// FeatureParams are the raw feature export inputs.
type FeatureParams struct {
	Hours *int
	Limit *int
}

// Service handles observation queries and ingestion.
type Service struct {
	repo     Repository
	clock    clockwork.Clock
	limits   filter.Limits
	defaults Defaults
}

// New creates an observation service.
func New(repo Repository) *Service {
	return &Service{
		repo:     repo,
		clock:    clockwork.NewRealClock(),
		limits:   filter.DefaultLimits(),
		defaults: DefaultDefaults(),
	}
}

// WithDefaults overrides the non-zero defaults in d.
func (s *Service) WithDefaults(d Defaults) *Service {
	if d.RadiusKm > 0 {
		s.defaults.RadiusKm = d.RadiusKm
	}
	if d.Hours > 0 {
		s.defaults.Hours = d.Hours
	}
	if d.Limit > 0 {
		s.defaults.Limit = d.Limit
	}
	if d.FeatureLimit > 0 {
		s.defaults.FeatureLimit = d.FeatureLimit
	}
	return s
}

// WithLimits sets the input ceilings.
func (s *Service) WithLimits(l filter.Limits) *Service {
	s.limits = l
	return s
}

// WithClock replaces the clock used for default ingestion timestamps.
func (s *Service) WithClock(c clockwork.Clock) *Service {
	if c != nil {
		s.clock = c
	}
	return s
}

// List returns observations in the lookback window, newest first, optionally
// within a geodesic radius of a center point.
func (s *Service) List(ctx context.Context, p ListParams) ([]domobs.Observation, error) {
	f, err := filter.NewObservations(
		p.Lat, p.Lon,
		valueOr(p.RadiusKm, s.defaults.RadiusKm),
		valueOr(p.Hours, s.defaults.Hours),
		valueOr(p.Limit, s.defaults.Limit),
		s.limits,
	)
	if err != nil {
		return nil, fmt.Errorf("observation filter: %w", err)
	}
	return s.repo.List(ctx, f) //nolint:wrapcheck // repository adds op context
}

// Features returns the observations for the feature collection export.
func (s *Service) Features(ctx context.Context, p FeatureParams) ([]domobs.Observation, error) {
	f, err := filter.NewFeatures(
		valueOr(p.Hours, s.defaults.Hours),
		valueOr(p.Limit, s.defaults.FeatureLimit),
		s.limits,
	)
	if err != nil {
		return nil, fmt.Errorf("feature filter: %w", err)
	}
	return s.repo.List(ctx, f.AsObservations()) //nolint:wrapcheck // repository adds op context
}

// Get returns one observation by id.
func (s *Service) Get(ctx context.Context, id int64) (domobs.Observation, error) {
	if id < 1 {
		return domobs.Observation{}, domain.NewFilterError("id", "must be positive")
	}
	return s.repo.Get(ctx, id) //nolint:wrapcheck // repository adds op context
}

// Create validates and persists one observation. The timestamp defaults to now.
func (s *Service) Create(ctx context.Context, in NewObservation) (domobs.Observation, error) {
	if err := in.Validate(); err != nil {
		return domobs.Observation{}, err
	}

	ts := s.clock.Now().UTC()
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = *in.Timestamp
	}

	o, err := domobs.New(ts, *in.Lat, *in.Lon, in.SourceType, in.SpeedMS, in.HeadingDeg, in.Metadata)
	if err != nil {
		return domobs.Observation{}, err //nolint:wrapcheck // domain error
	}

	id, err := s.repo.Insert(ctx, &o)
	if err != nil {
		return domobs.Observation{}, err //nolint:wrapcheck // repository adds op context
	}
	return o.WithID(id), nil
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
