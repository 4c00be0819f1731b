package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals missing or invalid connection settings. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrTenderNotFound signals that a tender is absent from the source store.
	ErrTenderNotFound = errors.New("tender not found")
	// ErrTransientIndex signals that the search index is unreachable or rejected a query.
	ErrTransientIndex = errors.New("search index unavailable")
	// ErrPerRecordWrite signals that a single record failed to map or upsert during sync.
	ErrPerRecordWrite = errors.New("record write failed")
	// ErrSourceUnavailable signals that the source store could not be read.
	ErrSourceUnavailable = errors.New("source store unavailable")

	// ErrInvalidRecord signals a source record that cannot be mapped (no id, bad embedding).
	ErrInvalidRecord = errors.New("invalid record")
	// ErrInvalidRequest signals a malformed client request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// NotFoundError tags ErrTenderNotFound with the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tender %s: %s", e.ID, ErrTenderNotFound.Error())
}

func (e *NotFoundError) Unwrap() error { return ErrTenderNotFound }

// NewNotFound creates a not-found error for the given tender id.
func NewNotFound(id string) error {
	return &NotFoundError{ID: id}
}

// RecordError wraps a per-record sync failure with the offending tender id.
type RecordError struct {
	ID  string
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("tender %s: %v", e.ID, e.Err)
}

// Unwrap exposes both the per-record sentinel and the cause.
func (e *RecordError) Unwrap() []error { return []error{ErrPerRecordWrite, e.Err} }

// NewRecordError wraps err as a per-record write failure for id.
func NewRecordError(id string, err error) error {
	return &RecordError{ID: id, Err: err}
}
