package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable signals that the primary store cannot serve the request.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidFilter signals a malformed or out-of-range query parameter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidObservation signals a rejected ingestion payload.
	ErrInvalidObservation = errors.New("invalid observation")
	// ErrQueryExecutionFailed signals that the store rejected or failed a query.
	ErrQueryExecutionFailed = errors.New("query execution failed")
	// ErrNotFound signals a missing observation.
	ErrNotFound = errors.New("not found")
)

// FilterError wraps ErrInvalidFilter with the offending parameter.
type FilterError struct {
	Field  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidFilter.Error(), e.Field, e.Reason)
}

func (e *FilterError) Unwrap() error { return ErrInvalidFilter }

// NewFilterError creates a filter error for a single parameter.
func NewFilterError(field, reason string) error {
	return &FilterError{Field: field, Reason: reason}
}

// ObservationError wraps ErrInvalidObservation with the offending field.
type ObservationError struct {
	Field  string
	Reason string
}

func (e *ObservationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidObservation.Error(), e.Field, e.Reason)
}

func (e *ObservationError) Unwrap() error { return ErrInvalidObservation }

// NewObservationError creates an ingestion validation error.
func NewObservationError(field, reason string) error {
	return &ObservationError{Field: field, Reason: reason}
}
