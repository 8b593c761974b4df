package atlas4d

import (
	"context"
	"fmt"
	"time"

	domanomaly "github.com/atlas4d/gateway/internal/domain/anomaly"
	domstats "github.com/atlas4d/gateway/internal/domain/stats"
	anomalyuc "github.com/atlas4d/gateway/internal/usecase/anomaly"
)

type anomalyUseCase interface {
	List(ctx context.Context, p anomalyuc.ListParams) ([]domanomaly.Anomaly, error)
}

type statsUseCase interface {
	Summary(ctx context.Context) (domstats.Summary, error)
}

// AnomalyService reads detected anomalies.
type AnomalyService struct {
	svc anomalyUseCase
	obs *observer
}

// List returns anomalies at or above the severity floor, newest first.
func (s *AnomalyService) List(ctx context.Context, opts AnomalyOptions) (_ []Anomaly, err error) {
	start := time.Now()
	defer func() { s.obs.observe("anomaly.list", start, err) }()

	as, err := s.svc.List(ctx, anomalyuc.ListParams{
		Hours:       nonZero(opts.Hours),
		MinSeverity: nonZero(opts.MinSeverity),
		Limit:       nonZero(opts.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}
	return fromInternalAnomalies(as), nil
}

// StatsService reads platform totals.
type StatsService struct {
	svc statsUseCase
	obs *observer
}

// Summary returns lifetime totals and the per-source breakdown.
func (s *StatsService) Summary(ctx context.Context) (_ Summary, err error) {
	start := time.Now()
	defer func() { s.obs.observe("stats.summary", start, err) }()

	sum, err := s.svc.Summary(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("stats summary: %w", err)
	}
	return fromInternalSummary(&sum), nil
}
