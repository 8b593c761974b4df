package atlas4d

import (
	"context"

	domanomaly "github.com/atlas4d/gateway/internal/domain/anomaly"
	domobs "github.com/atlas4d/gateway/internal/domain/observation"
	domstats "github.com/atlas4d/gateway/internal/domain/stats"
	anomalyuc "github.com/atlas4d/gateway/internal/usecase/anomaly"
	healthuc "github.com/atlas4d/gateway/internal/usecase/health"
	observationuc "github.com/atlas4d/gateway/internal/usecase/observation"
)

// --- observationUseCase mock ---

type mockObservationUC struct {
	listFn     func(ctx context.Context, p observationuc.ListParams) ([]domobs.Observation, error)
	featuresFn func(ctx context.Context, p observationuc.FeatureParams) ([]domobs.Observation, error)
	getFn      func(ctx context.Context, id int64) (domobs.Observation, error)
	createFn   func(ctx context.Context, in observationuc.NewObservation) (domobs.Observation, error)
}

func (m *mockObservationUC) List(ctx context.Context, p observationuc.ListParams) ([]domobs.Observation, error) {
	return m.listFn(ctx, p)
}

func (m *mockObservationUC) Features(
	ctx context.Context, p observationuc.FeatureParams,
) ([]domobs.Observation, error) {
	return m.featuresFn(ctx, p)
}

func (m *mockObservationUC) Get(ctx context.Context, id int64) (domobs.Observation, error) {
	return m.getFn(ctx, id)
}

func (m *mockObservationUC) Create(
	ctx context.Context, in observationuc.NewObservation,
) (domobs.Observation, error) {
	return m.createFn(ctx, in)
}

// --- anomalyUseCase mock ---

type mockAnomalyUC struct {
	listFn func(ctx context.Context, p anomalyuc.ListParams) ([]domanomaly.Anomaly, error)
}

func (m *mockAnomalyUC) List(ctx context.Context, p anomalyuc.ListParams) ([]domanomaly.Anomaly, error) {
	return m.listFn(ctx, p)
}

// --- statsUseCase mock ---

type mockStatsUC struct {
	summaryFn func(ctx context.Context) (domstats.Summary, error)
}

func (m *mockStatsUC) Summary(ctx context.Context) (domstats.Summary, error) {
	return m.summaryFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- storeManager mock ---

type mockStore struct {
	pingErr error
	stopped int
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }
func (m *mockStore) Stop()                        { m.stopped++ }
