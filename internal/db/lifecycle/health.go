package lifecycle

import (
	"context"

	"go.uber.org/zap"
)

// Status is the liveness of one store.
type Status string

const (
	// StatusHealthy means the probe round-tripped.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy means a connection exists but the probe failed.
	StatusUnhealthy Status = "unhealthy"
	// StatusNotConnected means no connection was ever established; nothing is probed.
	StatusNotConnected Status = "not connected"
)

// Health is the independently assessed liveness of both stores.
type Health struct {
	Primary Status
	Cache   Status
}

// Health probes each established connection. It never opens a new one.
func (m *Manager) Health(ctx context.Context) Health {
	m.mu.RLock()
	primary, cache := m.primary, m.cache
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, m.cfg.QueryTimeout)
	defer cancel()

	h := Health{Primary: StatusNotConnected, Cache: StatusNotConnected}
	if primary != nil {
		h.Primary = m.probe(ctx, "postgres", primary)
	}
	if cache != nil {
		h.Cache = m.probe(ctx, "redis", cache)
	}
	return h
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (m *Manager) probe(ctx context.Context, name string, p pinger) Status {
	if err := p.Ping(ctx); err != nil {
		m.logger.Warn("health probe failed", zap.String("store", name), zap.Error(err))
		return StatusUnhealthy
	}
	return StatusHealthy
}
