package stats

import (
	"context"

	domstats "github.com/atlas4d/gateway/internal/domain/stats"
)

// Service computes platform statistics.
type Service struct {
	repo Repository
}

// New creates a stats service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Summary returns lifetime totals, the per-source breakdown and the most recent
// observation time. Sources is never nil.
func (s *Service) Summary(ctx context.Context) (domstats.Summary, error) {
	sum, err := s.repo.Summary(ctx)
	if err != nil {
		return domstats.Summary{}, err //nolint:wrapcheck // repository adds op context
	}
	if sum.Sources == nil {
		sum.Sources = map[string]int64{}
	}
	return sum, nil
}
