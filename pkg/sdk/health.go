package atlas4d

import (
	"context"

	healthuc "github.com/atlas4d/gateway/internal/usecase/health"
)

// HealthStatus is the aggregated store health.
type HealthStatus struct {
	Status   string // "healthy" or "degraded"
	Postgres string // "healthy", "unhealthy" or "not connected"
	Redis    string
	Version  string
}

// Health probes the established connections. It never reconnects.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	return HealthStatus{
		Status:   string(report.Status),
		Postgres: string(report.Postgres),
		Redis:    string(report.Redis),
		Version:  report.Version,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
