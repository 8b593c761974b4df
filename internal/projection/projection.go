// Package projection shapes domain rows into the three output forms: flat
// records, the platform summary and a GeoJSON FeatureCollection.
package projection

import (
	"time"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	domanomaly "github.com/atlas4d/gateway/internal/domain/anomaly"
	domobs "github.com/atlas4d/gateway/internal/domain/observation"
	domstats "github.com/atlas4d/gateway/internal/domain/stats"
)

// ObservationRecord is the tabular form of an observation.
type ObservationRecord struct {
	ID         int64          `json:"id"`
	T          *time.Time     `json:"t"`
	Lat        float64        `json:"lat"`
	Lon        float64        `json:"lon"`
	SourceType *string        `json:"source_type"`
	SpeedMS    *float64       `json:"speed_ms"`
	HeadingDeg *float64       `json:"heading_deg"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AnomalyRecord is the tabular form of an anomaly joined with its observation.
type AnomalyRecord struct {
	ID          int64     `json:"id"`
	AnomalyType string    `json:"anomaly_type"`
	Severity    int       `json:"severity"`
	Score       float64   `json:"score"`
	DetectedAt  time.Time `json:"detected_at"`
	Lat         *float64  `json:"lat"`
	Lon         *float64  `json:"lon"`
	SourceType  *string   `json:"source_type"`
}

// SummaryRecord is the platform summary.
type SummaryRecord struct {
	TotalObservations int64            `json:"total_observations"`
	TotalAnomalies    int64            `json:"total_anomalies"`
	Sources           map[string]int64 `json:"sources"`
	LastObservation   *time.Time       `json:"last_observation"`
}

// Observation projects one observation.
func Observation(o *domobs.Observation) ObservationRecord {
	return ObservationRecord{
		ID:         o.ID(),
		T:          timePtr(o.Timestamp()),
		Lat:        o.Lat(),
		Lon:        o.Lon(),
		SourceType: o.SourceType(),
		SpeedMS:    o.SpeedMS(),
		HeadingDeg: o.HeadingDeg(),
		Metadata:   o.Metadata(),
	}
}

// Observations projects rows in order. The result is never nil.
func Observations(obs []domobs.Observation) []ObservationRecord {
	out := make([]ObservationRecord, 0, len(obs))
	for i := range obs {
		out = append(out, Observation(&obs[i]))
	}
	return out
}

// Anomalies projects rows in order. The result is never nil.
func Anomalies(as []domanomaly.Anomaly) []AnomalyRecord {
	out := make([]AnomalyRecord, 0, len(as))
	for i := range as {
		a := &as[i]
		rec := AnomalyRecord{
			ID:          a.ID(),
			AnomalyType: a.Type(),
			Severity:    a.Severity(),
			Score:       a.Score(),
			DetectedAt:  a.DetectedAt(),
			SourceType:  a.SourceType(),
		}
		// A position is emitted whole or not at all.
		if a.HasPosition() {
			rec.Lat, rec.Lon = a.Lat(), a.Lon()
		}
		out = append(out, rec)
	}
	return out
}

// Summary projects the platform summary; Sources is never nil.
func Summary(s *domstats.Summary) SummaryRecord {
	sources := s.Sources
	if sources == nil {
		sources = map[string]int64{}
	}
	return SummaryRecord{
		TotalObservations: s.TotalObservations,
		TotalAnomalies:    s.TotalAnomalies,
		Sources:           sources,
		LastObservation:   s.LastObservation,
	}
}

// FeatureCollection projects observations to point features with [lon, lat]
// coordinates. An empty input encodes as "features": [].
func FeatureCollection(obs []domobs.Observation) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(obs))}
	for i := range obs {
		fc.Features = append(fc.Features, Feature(&obs[i]))
	}
	return fc
}

// Feature projects one observation to a GeoJSON point feature.
func Feature(o *domobs.Observation) *geojson.Feature {
	var ts any
	if !o.Timestamp().IsZero() {
		ts = o.Timestamp().UTC().Format(time.RFC3339Nano)
	}
	return &geojson.Feature{
		Geometry: geom.NewPointFlat(geom.XY, []float64{o.Lon(), o.Lat()}),
		Properties: map[string]any{
			"id":          o.ID(),
			"time":        ts,
			"source_type": o.SourceType(),
			"speed_ms":    o.SpeedMS(),
		},
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
