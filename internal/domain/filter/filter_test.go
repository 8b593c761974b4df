package filter

import (
	"errors"
	"math"
	"testing"

	"github.com/atlas4d/gateway/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestNewWindow(t *testing.T) {
	tests := []struct {
		hours int
		ok    bool
	}{
		{1, true},
		{24, true},
		{8760, true},
		{0, false},
		{-5, false},
		{8761, false},
	}
	for _, tt := range tests {
		w, err := NewWindow(tt.hours, Limits{})
		if tt.ok {
			if err != nil {
				t.Errorf("NewWindow(%d) unexpected error: %v", tt.hours, err)
				continue
			}
			if w.Hours() != tt.hours {
				t.Errorf("hours = %d, want %d", w.Hours(), tt.hours)
			}
			continue
		}
		if !errors.Is(err, domain.ErrInvalidFilter) {
			t.Errorf("NewWindow(%d) expected ErrInvalidFilter, got %v", tt.hours, err)
		}
	}
}

func TestNewWindow_CustomMax(t *testing.T) {
	if _, err := NewWindow(49, Limits{MaxHours: 48}); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestNewCenter_BothOrNeither(t *testing.T) {
	c, err := NewCenter(nil, nil, 10, Limits{})
	if err != nil || c != nil {
		t.Fatalf("neither: want (nil, nil), got (%v, %v)", c, err)
	}

	_, err = NewCenter(ptr(42), nil, 10, Limits{})
	var fe *domain.FilterError
	if !errors.As(err, &fe) || fe.Field != "lon" {
		t.Errorf("lat only: expected lon filter error, got %v", err)
	}

	_, err = NewCenter(nil, ptr(23), 10, Limits{})
	if !errors.As(err, &fe) || fe.Field != "lat" {
		t.Errorf("lon only: expected lat filter error, got %v", err)
	}

	c, err = NewCenter(ptr(42), ptr(23), 10, Limits{})
	if err != nil {
		t.Fatalf("both: unexpected error: %v", err)
	}
	if c.Lat() != 42 || c.Lon() != 23 || c.RadiusMeters() != 10_000 {
		t.Errorf("unexpected center: %+v", c)
	}
}

func TestNewCenter_Radius(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		ok     bool
	}{
		{"positive", 0.5, true},
		{"antipode", 20_010, true},
		{"max", 20_016, true},
		{"zero", 0, false},
		{"negative", -1, false},
		{"above max", 20_017, false},
		{"nan", math.NaN(), false},
		{"inf", math.Inf(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCenter(ptr(0), ptr(0), tt.radius, Limits{})
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrInvalidFilter) {
				t.Fatalf("expected ErrInvalidFilter, got %v", err)
			}
		})
	}
}

func TestNewCenter_OutOfRangeCoordinates(t *testing.T) {
	if _, err := NewCenter(ptr(95), ptr(0), 10, Limits{}); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("lat 95: expected ErrInvalidFilter, got %v", err)
	}
	if _, err := NewCenter(ptr(0), ptr(-200), 10, Limits{}); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("lon -200: expected ErrInvalidFilter, got %v", err)
	}
}

func TestNewObservations(t *testing.T) {
	f, err := NewObservations(nil, nil, 10, 24, 100, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Spatial() {
		t.Error("expected time-only shape")
	}
	if f.Window().Hours() != 24 || f.Limit() != 100 {
		t.Errorf("unexpected filter: %+v", f)
	}

	f, err = NewObservations(ptr(37.7), ptr(-122.4), 5, 1, 1, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Spatial() || f.Center().RadiusKm() != 5 {
		t.Errorf("expected spatial shape, got %+v", f)
	}
}

func TestNewObservations_Limit(t *testing.T) {
	for _, limit := range []int{0, -1, 1001} {
		if _, err := NewObservations(nil, nil, 10, 24, limit, Limits{}); !errors.Is(err, domain.ErrInvalidFilter) {
			t.Errorf("limit %d: expected ErrInvalidFilter, got %v", limit, err)
		}
	}
	if _, err := NewObservations(nil, nil, 10, 24, 1000, Limits{}); err != nil {
		t.Errorf("limit 1000: unexpected error: %v", err)
	}
	if _, err := NewObservations(nil, nil, 10, 24, 51, Limits{MaxLimit: 50}); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("custom ceiling: expected ErrInvalidFilter, got %v", err)
	}
}

func TestNewAnomalies(t *testing.T) {
	f, err := NewAnomalies(24, 1, 50, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.MinSeverity() != 1 || f.Limit() != 50 || f.Window().Hours() != 24 {
		t.Errorf("unexpected filter: %+v", f)
	}

	for _, sev := range []int{0, 6} {
		_, err := NewAnomalies(24, sev, 50, Limits{})
		var fe *domain.FilterError
		if !errors.As(err, &fe) || fe.Field != "severity_min" {
			t.Errorf("severity %d: expected severity_min error, got %v", sev, err)
		}
	}
}

func TestNewFeatures(t *testing.T) {
	f, err := NewFeatures(24, 500, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs := f.AsObservations()
	if obs.Spatial() || obs.Limit() != 500 || obs.Window().Hours() != 24 {
		t.Errorf("unexpected conversion: %+v", obs)
	}

	if _, err := NewFeatures(0, 500, Limits{}); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}
