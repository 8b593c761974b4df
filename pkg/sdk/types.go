package atlas4d

import (
	"time"

	domanomaly "github.com/atlas4d/gateway/internal/domain/anomaly"
	domobs "github.com/atlas4d/gateway/internal/domain/observation"
	domstats "github.com/atlas4d/gateway/internal/domain/stats"
	observationuc "github.com/atlas4d/gateway/internal/usecase/observation"
)

// Point is a WGS84 position in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Observation is one stored position report.
type Observation struct {
	ID         int64
	Time       time.Time
	Lat        float64
	Lon        float64
	SourceType *string
	SpeedMS    *float64
	HeadingDeg *float64
	// Metadata is only populated by Get.
	Metadata map[string]any
}

// NewObservation is an observation to ingest. A zero Time means now;
// an empty SourceType is stored as "manual".
type NewObservation struct {
	Lat        float64
	Lon        float64
	SourceType string
	SpeedMS    *float64
	HeadingDeg *float64
	Metadata   map[string]any
	Time       time.Time
}

// ListOptions narrows an observation scan. Zero fields take the server defaults.
type ListOptions struct {
	Near     *Point
	RadiusKm float64
	Hours    int
	Limit    int
}

// AnomalyOptions narrows an anomaly scan. Zero fields take the server defaults.
type AnomalyOptions struct {
	Hours       int
	MinSeverity int
	Limit       int
}

// Anomaly is one detected anomaly with the position of its observation, if any.
type Anomaly struct {
	ID         int64
	Type       string
	Severity   int
	Score      float64
	DetectedAt time.Time
	Lat        *float64
	Lon        *float64
	SourceType *string
}

// Summary holds lifetime totals.
type Summary struct {
	TotalObservations int64
	TotalAnomalies    int64
	Sources           map[string]int64
	LastObservation   *time.Time
}

func fromInternalObservation(o *domobs.Observation) Observation {
	return Observation{
		ID:         o.ID(),
		Time:       o.Timestamp(),
		Lat:        o.Lat(),
		Lon:        o.Lon(),
		SourceType: o.SourceType(),
		SpeedMS:    o.SpeedMS(),
		HeadingDeg: o.HeadingDeg(),
		Metadata:   o.Metadata(),
	}
}

func fromInternalObservations(obs []domobs.Observation) []Observation {
	out := make([]Observation, len(obs))
	for i := range obs {
		out[i] = fromInternalObservation(&obs[i])
	}
	return out
}

func fromInternalAnomalies(as []domanomaly.Anomaly) []Anomaly {
	out := make([]Anomaly, len(as))
	for i := range as {
		a := &as[i]
		out[i] = Anomaly{
			ID:         a.ID(),
			Type:       a.Type(),
			Severity:   a.Severity(),
			Score:      a.Score(),
			DetectedAt: a.DetectedAt(),
			Lat:        a.Lat(),
			Lon:        a.Lon(),
			SourceType: a.SourceType(),
		}
	}
	return out
}

func fromInternalSummary(s *domstats.Summary) Summary {
	sources := s.Sources
	if sources == nil {
		sources = map[string]int64{}
	}
	return Summary{
		TotalObservations: s.TotalObservations,
		TotalAnomalies:    s.TotalAnomalies,
		Sources:           sources,
		LastObservation:   s.LastObservation,
	}
}

func toInternalNewObservation(in *NewObservation) observationuc.NewObservation {
	out := observationuc.NewObservation{
		Lat:        &in.Lat,
		Lon:        &in.Lon,
		SourceType: in.SourceType,
		SpeedMS:    in.SpeedMS,
		HeadingDeg: in.HeadingDeg,
		Metadata:   in.Metadata,
	}
	if !in.Time.IsZero() {
		t := in.Time
		out.Timestamp = &t
	}
	return out
}

func toListParams(o ListOptions) observationuc.ListParams {
	var p observationuc.ListParams
	if o.Near != nil {
		p.Lat = &o.Near.Lat
		p.Lon = &o.Near.Lon
	}
	p.RadiusKm = nonZero(o.RadiusKm)
	p.Hours = nonZero(o.Hours)
	p.Limit = nonZero(o.Limit)
	return p
}

// nonZero returns nil for the zero value so the service default applies.
func nonZero[T int | float64](v T) *T {
	if v == 0 {
		return nil
	}
	return &v
}
