package anomaly

import (
	"context"

	domanomaly "github.com/atlas4d/gateway/internal/domain/anomaly"
	"github.com/atlas4d/gateway/internal/domain/filter"
)

// Repository defines the storage contract for anomalies.
type Repository interface {
	List(ctx context.Context, f filter.Anomalies) ([]domanomaly.Anomaly, error)
}
