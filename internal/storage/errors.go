package storage

import "errors"

var (
	// ErrReserveExhausted is returned when the reserved address range of the
	// virtual backend is fully committed and a new page is requested.
	ErrReserveExhausted = errors.New("storage: reserved address space exhausted")
	// ErrAllocFailed wraps OS-level allocation or commit failures.
	ErrAllocFailed = errors.New("storage: page allocation failed")
	// ErrUnknownPage is returned when a page index does not exist.
	ErrUnknownPage = errors.New("storage: unknown page")
	// ErrOutOfRange is returned when a range lies beyond the written extent.
	ErrOutOfRange = errors.New("storage: range beyond written extent")
	// ErrUnknownMode is returned for a backend mode outside the closed set.
	ErrUnknownMode = errors.New("storage: unknown backend mode")
)
