package patentdex

import "github.com/kailas-cloud/patentdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrAlreadyExists     = domain.ErrAlreadyExists
	ErrAlreadyProcessed  = domain.ErrAlreadyProcessed
	ErrInvalidArgument   = domain.ErrInvalidArgument
	ErrDimensionMismatch = domain.ErrDimensionMismatch
	ErrZeroVector        = domain.ErrZeroVector
	ErrModelUnavailable  = domain.ErrModelUnavailable
	ErrModelError        = domain.ErrModelError
	ErrRateLimited       = domain.ErrRateLimited
	ErrQuotaExceeded     = domain.ErrQuotaExceeded
)
