package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the retrieval core.
var (
	// ErrEmbedding marks a failed or malformed embedding-gateway call.
	// The whole batch is rejected; no partial state is committed.
	ErrEmbedding = errors.New("embedding gateway failed")

	// ErrCorruptStore marks persisted artifacts that disagree with each
	// other (length mismatch) or cannot be decoded. Fatal at load time.
	ErrCorruptStore = errors.New("corrupt vector store")

	// ErrInvalidVideo marks a scraped video that fails the ingestion gate.
	ErrInvalidVideo = errors.New("invalid scraped video")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
