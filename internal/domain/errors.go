package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing document, summary, or embedding.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a document ID that is already loaded.
	ErrAlreadyExists = errors.New("already exists")
	// ErrAlreadyProcessed signals that a derived record already exists for the document.
	ErrAlreadyProcessed = errors.New("already processed")
	// ErrInvalidArgument signals a request rejected before any remote call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDimensionMismatch signals a vector whose length differs from the corpus dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrZeroVector signals a vector with zero magnitude, for which cosine distance is undefined.
	ErrZeroVector = errors.New("zero vector")

	// ErrModelUnavailable signals a transient model gateway failure (network, timeout, 5xx).
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrModelError signals a permanent model failure or a malformed response.
	ErrModelError = errors.New("model error")
	// ErrRateLimited signals a rate limit hit on the model provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals an exhausted token budget.
	ErrQuotaExceeded = errors.New("model token quota exceeded")
)

// DimensionMismatchError carries both sides of a failed dimensionality check.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrDimensionMismatch.Error(), e.Expected, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(expected, got int) error {
	return &DimensionMismatchError{Expected: expected, Got: got}
}

// IsFatal reports whether err must abort a pipeline run instead of failing a single item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrQuotaExceeded)
}
