package stats

import (
	"context"

	domstats "github.com/atlas4d/gateway/internal/domain/stats"
)

// Repository defines the aggregate query contract.
type Repository interface {
	Summary(ctx context.Context) (domstats.Summary, error)
}
