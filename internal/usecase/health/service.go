package health

import (
	"context"

	"github.com/atlas4d/gateway/internal/db/lifecycle"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates the primary store answered its probe.
	Healthy Status = "healthy"
	// Degraded indicates the primary store is unhealthy or was never connected.
	// The cache never affects the aggregate.
	Degraded Status = "degraded"
)

// Report aggregates per-store liveness.
type Report struct {
	Status   Status
	Postgres lifecycle.Status
	Redis    lifecycle.Status
	Version  string
}

// Service coordinates health checks.
type Service struct {
	stores  StoreProber
	version string
}

// New creates a Service.
func New(stores StoreProber, version string) *Service {
	return &Service{stores: stores, version: version}
}

// Check probes each established connection. It never opens one and never fails.
func (s *Service) Check(ctx context.Context) Report {
	h := s.stores.Health(ctx)

	status := Healthy
	if h.Primary != lifecycle.StatusHealthy {
		status = Degraded
	}

	return Report{
		Status:   status,
		Postgres: h.Primary,
		Redis:    h.Cache,
		Version:  s.version,
	}
}
