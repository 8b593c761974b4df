package anomaly

import (
	"context"
	"fmt"

	domanomaly "github.com/atlas4d/gateway/internal/domain/anomaly"
	"github.com/atlas4d/gateway/internal/domain/filter"
)

// Defaults fill filter parameters the caller omitted.
type Defaults struct {
	Hours       int
	MinSeverity int
	Limit       int
}

// DefaultDefaults returns 24 h, severity 1 and 50 rows.
func DefaultDefaults() Defaults {
	return Defaults{Hours: 24, MinSeverity: domanomaly.MinSeverity, Limit: 50}
}

// ListParams are the raw list inputs; nil means "use the default".
type ListParams struct {
	Hours       *int
	MinSeverity *int
	Limit       *int
}

// Service handles anomaly queries.
type Service struct {
	repo     Repository
	limits   filter.Limits
	defaults Defaults
}

// New creates an anomaly service.
func New(repo Repository) *Service {
	return &Service{repo: repo, limits: filter.DefaultLimits(), defaults: DefaultDefaults()}
}

// WithDefaults overrides the non-zero defaults in d.
func (s *Service) WithDefaults(d Defaults) *Service {
	if d.Hours > 0 {
		s.defaults.Hours = d.Hours
	}
	if d.MinSeverity > 0 {
		s.defaults.MinSeverity = d.MinSeverity
	}
	if d.Limit > 0 {
		s.defaults.Limit = d.Limit
	}
	return s
}

// WithLimits sets the input ceilings.
func (s *Service) WithLimits(l filter.Limits) *Service {
	s.limits = l
	return s
}

// List returns anomalies detected in the window with severity at or above the floor.
func (s *Service) List(ctx context.Context, p ListParams) ([]domanomaly.Anomaly, error) {
	f, err := filter.NewAnomalies(
		valueOr(p.Hours, s.defaults.Hours),
		valueOr(p.MinSeverity, s.defaults.MinSeverity),
		valueOr(p.Limit, s.defaults.Limit),
		s.limits,
	)
	if err != nil {
		return nil, fmt.Errorf("anomaly filter: %w", err)
	}
	return s.repo.List(ctx, f) //nolint:wrapcheck // repository adds op context
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
