package observation

import (
	"context"

	"github.com/atlas4d/gateway/internal/domain/filter"
	domobs "github.com/atlas4d/gateway/internal/domain/observation"
)

// Repository defines the storage contract for observations.
type Repository interface {
	List(ctx context.Context, f filter.Observations) ([]domobs.Observation, error)
	Get(ctx context.Context, id int64) (domobs.Observation, error)
	Insert(ctx context.Context, o *domobs.Observation) (int64, error)
}
