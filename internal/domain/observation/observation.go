package observation

import (
	"maps"
	"time"

	"github.com/atlas4d/gateway/internal/domain"
	"github.com/atlas4d/gateway/internal/domain/geo"
)

// DefaultSource is the classification assigned when a caller omits source_type.
const DefaultSource = "manual"

// Observation is a timestamped geographic point reading (immutable value object).
type Observation struct {
	id         int64
	timestamp  time.Time
	lat        float64
	lon        float64
	sourceType *string
	speedMS    *float64
	headingDeg *float64
	metadata   map[string]any
}

// New validates and creates an Observation that has not been persisted yet.
// Coordinates must be within WGS84 bounds; an empty source falls back to DefaultSource.
func New(
	ts time.Time, lat, lon float64, source string,
	speedMS, headingDeg *float64, metadata map[string]any,
) (Observation, error) {
	if !geo.ValidLat(lat) {
		return Observation{}, domain.NewObservationError("lat", "must be between -90 and 90")
	}
	if !geo.ValidLon(lon) {
		return Observation{}, domain.NewObservationError("lon", "must be between -180 and 180")
	}
	if ts.IsZero() {
		return Observation{}, domain.NewObservationError("timestamp", "is required")
	}
	if source == "" {
		source = DefaultSource
	}

	return Observation{
		timestamp:  ts.UTC(),
		lat:        lat,
		lon:        lon,
		sourceType: &source,
		speedMS:    cloneFloat(speedMS),
		headingDeg: cloneFloat(headingDeg),
		metadata:   maps.Clone(metadata),
	}, nil
}

// Reconstruct creates an Observation without validation (storage hydration).
func Reconstruct(
	id int64, ts time.Time, lat, lon float64, sourceType *string,
	speedMS, headingDeg *float64, metadata map[string]any,
) Observation {
	return Observation{
		id:         id,
		timestamp:  ts,
		lat:        lat,
		lon:        lon,
		sourceType: sourceType,
		speedMS:    speedMS,
		headingDeg: headingDeg,
		metadata:   metadata,
	}
}

// ID returns the store-assigned identifier (zero before insert).
func (o *Observation) ID() int64 { return o.id }

// Timestamp returns the observation time. Zero when the stored value was NULL.
func (o *Observation) Timestamp() time.Time { return o.timestamp }

// Lat returns the latitude in degrees.
func (o *Observation) Lat() float64 { return o.lat }

// Lon returns the longitude in degrees.
func (o *Observation) Lon() float64 { return o.lon }

// SourceType returns the source classification, nil when the store holds NULL.
func (o *Observation) SourceType() *string { return o.sourceType }

// Source returns the source classification or "" when absent.
func (o *Observation) Source() string {
	if o.sourceType == nil {
		return ""
	}
	return *o.sourceType
}

// SpeedMS returns the optional speed in meters per second.
func (o *Observation) SpeedMS() *float64 { return o.speedMS }

// HeadingDeg returns the optional heading in degrees.
func (o *Observation) HeadingDeg() *float64 { return o.headingDeg }

// Metadata returns the unstructured metadata map (may be nil).
func (o *Observation) Metadata() map[string]any { return o.metadata }

// WithID returns a copy carrying the store-assigned identifier.
func (o Observation) WithID(id int64) Observation {
	o.id = id
	return o
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
