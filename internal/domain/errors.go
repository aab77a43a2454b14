package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPrice signals a catalog price that is not a non-negative number.
	ErrMalformedPrice = errors.New("malformed price")
	// ErrDuplicateItem signals two catalog records with the same name.
	ErrDuplicateItem = errors.New("duplicate catalog item")
	// ErrInvalidPreferences signals a preference set that cannot be searched.
	ErrInvalidPreferences = errors.New("invalid preferences")

	// ErrIndexUnavailable signals a semantic index transport or service failure.
	ErrIndexUnavailable = errors.New("semantic index unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals that the configured token budget is spent.
	ErrEmbeddingQuotaExceeded = errors.New("embedding token budget exceeded")
	// ErrVideoSearchUnavailable signals a video search transport failure.
	// A search without hits is not an error.
	ErrVideoSearchUnavailable = errors.New("video search unavailable")
)

// IndexUnavailableError wraps ErrIndexUnavailable with the failed index operation.
type IndexUnavailableError struct {
	Op  string
	Err error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrIndexUnavailable.Error(), e.Op, e.Err)
}

// Is reports ErrIndexUnavailable so callers can match on the sentinel.
func (e *IndexUnavailableError) Is(target error) bool { return target == ErrIndexUnavailable }

func (e *IndexUnavailableError) Unwrap() error { return e.Err }

// NewIndexUnavailable creates an index failure error for the given operation.
func NewIndexUnavailable(op string, err error) error {
	return &IndexUnavailableError{Op: op, Err: err}
}
