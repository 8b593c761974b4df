package health

import (
	"context"

	"github.com/atlas4d/gateway/internal/db/lifecycle"
)

// StoreProber reports the liveness of the primary store and the cache.
type StoreProber interface {
	Health(ctx context.Context) lifecycle.Health
}
