package atlas4d

import "github.com/atlas4d/gateway/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrStoreUnavailable     = domain.ErrStoreUnavailable
	ErrInvalidFilter        = domain.ErrInvalidFilter
	ErrInvalidObservation   = domain.ErrInvalidObservation
	ErrQueryExecutionFailed = domain.ErrQueryExecutionFailed
	ErrNotFound             = domain.ErrNotFound
)
