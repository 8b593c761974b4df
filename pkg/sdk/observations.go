package atlas4d

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	domobs "github.com/atlas4d/gateway/internal/domain/observation"
	"github.com/atlas4d/gateway/internal/projection"
	observationuc "github.com/atlas4d/gateway/internal/usecase/observation"
)

type observationUseCase interface {
	List(ctx context.Context, p observationuc.ListParams) ([]domobs.Observation, error)
	Features(ctx context.Context, p observationuc.FeatureParams) ([]domobs.Observation, error)
	Get(ctx context.Context, id int64) (domobs.Observation, error)
	Create(ctx context.Context, in observationuc.NewObservation) (domobs.Observation, error)
}

// ObservationService reads and ingests observations.
type ObservationService struct {
	svc observationUseCase
	obs *observer
}

// List returns observations in the lookback window, newest first.
func (s *ObservationService) List(ctx context.Context, opts ListOptions) (_ []Observation, err error) {
	start := time.Now()
	defer func() { s.obs.observe("observation.list", start, err) }()

	obs, err := s.svc.List(ctx, toListParams(opts))
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	return fromInternalObservations(obs), nil
}

// Get returns one observation with its metadata.
func (s *ObservationService) Get(ctx context.Context, id int64) (_ Observation, err error) {
	start := time.Now()
	defer func() { s.obs.observe("observation.get", start, err) }()

	o, err := s.svc.Get(ctx, id)
	if err != nil {
		return Observation{}, fmt.Errorf("get observation: %w", err)
	}
	return fromInternalObservation(&o), nil
}

// Create ingests one observation and returns its id.
func (s *ObservationService) Create(ctx context.Context, in NewObservation) (_ int64, err error) {
	start := time.Now()
	defer func() { s.obs.observe("observation.create", start, err) }()

	o, err := s.svc.Create(ctx, toInternalNewObservation(&in))
	if err != nil {
		return 0, fmt.Errorf("create observation: %w", err)
	}
	return o.ID(), nil
}

// GeoJSON returns recent observations as an encoded FeatureCollection.
// Zero hours or limit take the server defaults.
func (s *ObservationService) GeoJSON(ctx context.Context, hours, limit int) (_ []byte, err error) {
	start := time.Now()
	defer func() { s.obs.observe("observation.geojson", start, err) }()

	obs, err := s.svc.Features(ctx, observationuc.FeatureParams{
		Hours: nonZero(hours),
		Limit: nonZero(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("observation features: %w", err)
	}
	body, err := json.Marshal(projection.FeatureCollection(obs))
	if err != nil {
		return nil, fmt.Errorf("encode feature collection: %w", err)
	}
	return body, nil
}
