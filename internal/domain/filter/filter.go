// Package filter holds validated query parameters for the windowed scans.
// Every constructor fails with domain.ErrInvalidFilter before any store interaction.
package filter

import (
	"math"
	"strconv"

	"github.com/atlas4d/gateway/internal/domain"
	"github.com/atlas4d/gateway/internal/domain/anomaly"
	"github.com/atlas4d/gateway/internal/domain/geo"
)

// Limits are the ceilings enforced on caller input.
type Limits struct {
	MaxLimit    int
	MaxHours    int
	MaxRadiusKm float64
}

// DefaultLimits returns the ceilings used when configuration leaves them unset.
func DefaultLimits() Limits {
	return Limits{
		MaxLimit:    1000,
		MaxHours:    8760,
		MaxRadiusKm: geo.MaxRadiusKm,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxLimit <= 0 {
		l.MaxLimit = d.MaxLimit
	}
	if l.MaxHours <= 0 {
		l.MaxHours = d.MaxHours
	}
	if l.MaxRadiusKm <= 0 {
		l.MaxRadiusKm = d.MaxRadiusKm
	}
	return l
}

// Window is a lookback window in whole hours, bounded to [1, Limits.MaxHours].
type Window struct {
	hours int
}

// NewWindow validates a lookback window.
func NewWindow(hours int, l Limits) (Window, error) {
	l = l.withDefaults()
	if hours < 1 || hours > l.MaxHours {
		return Window{}, domain.NewFilterError("hours", "must be between 1 and "+strconv.Itoa(l.MaxHours))
	}
	return Window{hours: hours}, nil
}

// Hours returns the window length in hours.
func (w Window) Hours() int { return w.hours }

// IsZero reports whether the window was never validated.
func (w Window) IsZero() bool { return w.hours == 0 }

// Center is a proximity constraint: a point plus a geodesic radius.
type Center struct {
	lat      float64
	lon      float64
	radiusKm float64
}

// NewCenter validates a center point. Both coordinates must be present or both
// absent; (nil, nil) returns a nil Center and no error.
func NewCenter(lat, lon *float64, radiusKm float64, l Limits) (*Center, error) {
	l = l.withDefaults()
	if err := validateRadius(radiusKm, l); err != nil {
		return nil, err
	}
	switch {
	case lat == nil && lon == nil:
		return nil, nil
	case lat == nil:
		return nil, domain.NewFilterError("lat", "is required when lon is set")
	case lon == nil:
		return nil, domain.NewFilterError("lon", "is required when lat is set")
	}
	if !geo.ValidLat(*lat) {
		return nil, domain.NewFilterError("lat", "must be between -90 and 90")
	}
	if !geo.ValidLon(*lon) {
		return nil, domain.NewFilterError("lon", "must be between -180 and 180")
	}
	return &Center{lat: *lat, lon: *lon, radiusKm: radiusKm}, nil
}

// Lat returns the center latitude.
func (c *Center) Lat() float64 { return c.lat }

// Lon returns the center longitude.
func (c *Center) Lon() float64 { return c.lon }

// RadiusKm returns the radius in kilometers.
func (c *Center) RadiusKm() float64 { return c.radiusKm }

// RadiusMeters returns the radius in meters.
func (c *Center) RadiusMeters() float64 { return geo.KmToMeters(c.radiusKm) }

func validateRadius(r float64, l Limits) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return domain.NewFilterError("radius_km", "must be positive")
	}
	if r > l.MaxRadiusKm {
		return domain.NewFilterError("radius_km", "exceeds maximum")
	}
	return nil
}

func validateLimit(limit int, l Limits) error {
	if limit < 1 || limit > l.MaxLimit {
		return domain.NewFilterError("limit", "must be between 1 and "+strconv.Itoa(l.MaxLimit))
	}
	return nil
}

// Observations filters the observation scan. Center is nil for the time-only shape.
type Observations struct {
	window Window
	center *Center
	limit  int
}

// NewObservations validates an observation scan.
func NewObservations(lat, lon *float64, radiusKm float64, hours, limit int, l Limits) (Observations, error) {
	l = l.withDefaults()
	w, err := NewWindow(hours, l)
	if err != nil {
		return Observations{}, err
	}
	if err := validateLimit(limit, l); err != nil {
		return Observations{}, err
	}
	c, err := NewCenter(lat, lon, radiusKm, l)
	if err != nil {
		return Observations{}, err
	}
	return Observations{window: w, center: c, limit: limit}, nil
}

// Window returns the lookback window.
func (f Observations) Window() Window { return f.window }

// Center returns the proximity constraint, nil when absent.
func (f Observations) Center() *Center { return f.center }

// Limit returns the result cap.
func (f Observations) Limit() int { return f.limit }

// Spatial reports whether the scan is constrained to a center point.
func (f Observations) Spatial() bool { return f.center != nil }

// Anomalies filters the anomaly scan.
type Anomalies struct {
	window      Window
	minSeverity int
	limit       int
}

// NewAnomalies validates an anomaly scan. minSeverity is inclusive.
func NewAnomalies(hours, minSeverity, limit int, l Limits) (Anomalies, error) {
	l = l.withDefaults()
	w, err := NewWindow(hours, l)
	if err != nil {
		return Anomalies{}, err
	}
	if !anomaly.ValidSeverity(minSeverity) {
		return Anomalies{}, domain.NewFilterError("severity_min", "must be between 1 and 5")
	}
	if err := validateLimit(limit, l); err != nil {
		return Anomalies{}, err
	}
	return Anomalies{window: w, minSeverity: minSeverity, limit: limit}, nil
}

// Window returns the lookback window.
func (f Anomalies) Window() Window { return f.window }

// MinSeverity returns the inclusive severity floor.
func (f Anomalies) MinSeverity() int { return f.minSeverity }

// Limit returns the result cap.
func (f Anomalies) Limit() int { return f.limit }

// Features filters the feature collection export.
type Features struct {
	window Window
	limit  int
}

// NewFeatures validates a feature collection export.
func NewFeatures(hours, limit int, l Limits) (Features, error) {
	l = l.withDefaults()
	w, err := NewWindow(hours, l)
	if err != nil {
		return Features{}, err
	}
	if err := validateLimit(limit, l); err != nil {
		return Features{}, err
	}
	return Features{window: w, limit: limit}, nil
}

// Window returns the lookback window.
func (f Features) Window() Window { return f.window }

// Limit returns the result cap.
func (f Features) Limit() int { return f.limit }

// AsObservations converts the export filter to the time-only observation scan.
func (f Features) AsObservations() Observations {
	return Observations{window: f.window, limit: f.limit}
}
