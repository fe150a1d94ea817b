package pinstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pinstore/internal/resource"
	"github.com/hupe1980/pinstore/internal/storage"
)

var (
	// ErrAllocationExhausted is returned when the virtual backend has no
	// reserved address space left for another page.
	ErrAllocationExhausted = errors.New("reserved address space exhausted")

	// ErrMemoryLimitExceeded is returned when an allocation would exceed the
	// limit configured via WithMemoryLimit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

	// ErrInvalidRef is returned when a Ref does not resolve to written data
	// in this store.
	ErrInvalidRef = errors.New("invalid ref")

	// ErrEmptyBlob is returned when Append is called with no data.
	ErrEmptyBlob = errors.New("empty blob")

	// ErrStoreClosed is returned for operations on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// ErrSystemAllocation indicates that the operating system refused a memory
// mapping or commit request.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrSystemAllocation struct {
	cause error
}

func (e *ErrSystemAllocation) Error() string {
	return fmt.Sprintf("system allocation failed: %v", e.cause)
}

func (e *ErrSystemAllocation) Unwrap() error { return e.cause }

// ErrInvalidConfig indicates a rejected configuration value.
type ErrInvalidConfig struct {
	Option string
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Option, e.Reason)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, storage.ErrReserveExhausted) {
		return fmt.Errorf("%w: %w", ErrAllocationExhausted, err)
	}
	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}
	if errors.Is(err, storage.ErrAllocFailed) {
		return &ErrSystemAllocation{cause: err}
	}

	// Ref resolution normalization.
	if errors.Is(err, storage.ErrUnknownPage) || errors.Is(err, storage.ErrOutOfRange) {
		return fmt.Errorf("%w: %w", ErrInvalidRef, err)
	}

	return err
}
