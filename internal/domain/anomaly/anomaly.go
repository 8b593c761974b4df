package anomaly

import "time"

// Severity bounds (inclusive).
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// Anomaly is a detected irregularity, optionally linked to an observation.
// Position fields are nil when the linked observation is absent.
type Anomaly struct {
	id         int64
	kind       string
	severity   int
	score      float64
	detectedAt time.Time
	lat        *float64
	lon        *float64
	sourceType *string
}

// Reconstruct creates an Anomaly from a stored row joined with its observation.
func Reconstruct(
	id int64, kind string, severity int, score float64, detectedAt time.Time,
	lat, lon *float64, sourceType *string,
) Anomaly {
	return Anomaly{
		id:         id,
		kind:       kind,
		severity:   severity,
		score:      score,
		detectedAt: detectedAt,
		lat:        lat,
		lon:        lon,
		sourceType: sourceType,
	}
}

// ID returns the anomaly identifier.
func (a *Anomaly) ID() int64 { return a.id }

// Type returns the anomaly classification.
func (a *Anomaly) Type() string { return a.kind }

// Severity returns the severity in [MinSeverity, MaxSeverity].
func (a *Anomaly) Severity() int { return a.severity }

// Score returns the detector score.
func (a *Anomaly) Score() float64 { return a.score }

// DetectedAt returns the detection time.
func (a *Anomaly) DetectedAt() time.Time { return a.detectedAt }

// Lat returns the latitude of the linked observation.
func (a *Anomaly) Lat() *float64 { return a.lat }

// Lon returns the longitude of the linked observation.
func (a *Anomaly) Lon() *float64 { return a.lon }

// SourceType returns the source of the linked observation.
func (a *Anomaly) SourceType() *string { return a.sourceType }

// HasPosition reports whether the linked observation was found.
func (a *Anomaly) HasPosition() bool { return a.lat != nil && a.lon != nil }

// ValidSeverity reports whether s is inside the severity domain.
func ValidSeverity(s int) bool { return s >= MinSeverity && s <= MaxSeverity }
