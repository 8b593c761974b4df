package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/atlas4d/gateway/internal/db/lifecycle"
	domanomaly "github.com/atlas4d/gateway/internal/domain/anomaly"
	"github.com/atlas4d/gateway/internal/domain/filter"
	domobs "github.com/atlas4d/gateway/internal/domain/observation"
	domstats "github.com/atlas4d/gateway/internal/domain/stats"
	anomalyuc "github.com/atlas4d/gateway/internal/usecase/anomaly"
	healthuc "github.com/atlas4d/gateway/internal/usecase/health"
	observationuc "github.com/atlas4d/gateway/internal/usecase/observation"
	statsuc "github.com/atlas4d/gateway/internal/usecase/stats"
)

// --- Mocks ---

type mockObservations struct {
	listFn   func(ctx context.Context, f filter.Observations) ([]domobs.Observation, error)
	getFn    func(ctx context.Context, id int64) (domobs.Observation, error)
	insertFn func(ctx context.Context, o *domobs.Observation) (int64, error)
}

func (m *mockObservations) List(ctx context.Context, f filter.Observations) ([]domobs.Observation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return []domobs.Observation{}, nil
}

func (m *mockObservations) Get(ctx context.Context, id int64) (domobs.Observation, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domobs.Observation{}, nil
}

func (m *mockObservations) Insert(ctx context.Context, o *domobs.Observation) (int64, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, o)
	}
	return 1, nil
}

type mockAnomalies struct {
	listFn func(ctx context.Context, f filter.Anomalies) ([]domanomaly.Anomaly, error)
}

func (m *mockAnomalies) List(ctx context.Context, f filter.Anomalies) ([]domanomaly.Anomaly, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return []domanomaly.Anomaly{}, nil
}

type mockStats struct {
	summaryFn func(ctx context.Context) (domstats.Summary, error)
}

func (m *mockStats) Summary(ctx context.Context) (domstats.Summary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx)
	}
	return domstats.Summary{}, nil
}

type mockProber struct {
	h lifecycle.Health
}

func (m *mockProber) Health(context.Context) lifecycle.Health { return m.h }

// --- Harness ---

type harness struct {
	obs    *mockObservations
	anom   *mockAnomalies
	stats  *mockStats
	prober *mockProber
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		obs:    &mockObservations{},
		anom:   &mockAnomalies{},
		stats:  &mockStats{},
		prober: &mockProber{h: lifecycle.Health{Primary: lifecycle.StatusHealthy, Cache: lifecycle.StatusHealthy}},
	}
	srv := NewServer(
		observationuc.New(h.obs),
		anomalyuc.New(h.anom),
		statsuc.New(h.stats),
		healthuc.New(h.prober, "test"),
		zap.NewNop(),
	)
	r := chi.NewRouter()
	srv.Routes(r)
	h.router = r
	return h
}

func (h *harness) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func ptr[T any](v T) *T { return &v }
