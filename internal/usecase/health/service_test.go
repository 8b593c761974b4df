package health

import (
	"context"
	"testing"

	"github.com/atlas4d/gateway/internal/db/lifecycle"
)

// --- Mocks ---

type mockProber struct {
	h lifecycle.Health
}

func (m *mockProber) Health(context.Context) lifecycle.Health { return m.h }

// --- Tests ---

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		primary lifecycle.Status
		cache   lifecycle.Status
		want    Status
	}{
		{"all healthy", lifecycle.StatusHealthy, lifecycle.StatusHealthy, Healthy},
		{"cache down only", lifecycle.StatusHealthy, lifecycle.StatusUnhealthy, Healthy},
		{"cache never connected", lifecycle.StatusHealthy, lifecycle.StatusNotConnected, Healthy},
		{"primary unhealthy", lifecycle.StatusUnhealthy, lifecycle.StatusHealthy, Degraded},
		{"primary never connected", lifecycle.StatusNotConnected, lifecycle.StatusNotConnected, Degraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockProber{h: lifecycle.Health{Primary: tt.primary, Cache: tt.cache}}, "1.2.3")
			r := svc.Check(context.Background())

			if r.Status != tt.want {
				t.Errorf("expected %q, got %q", tt.want, r.Status)
			}
			if r.Postgres != tt.primary || r.Redis != tt.cache {
				t.Errorf("per-store status lost: %+v", r)
			}
			if r.Version != "1.2.3" {
				t.Errorf("expected version 1.2.3, got %q", r.Version)
			}
		})
	}
}
