package pinstore

import (
	"math"
	"time"
)

// Backend selects the page allocation strategy.
type Backend int

const (
	// Segmented allocates each page as an independent anonymous mapping.
	// Pages are not contiguous and objects never span a page boundary:
	// an object that does not fit the current page's remainder is placed
	// at the start of the next page and the remainder is padded out.
	Segmented Backend = iota

	// Virtual reserves one large contiguous address range up front and
	// commits physical memory one page at a time as the write cursor
	// advances. Objects may span page boundaries, so no padding is ever
	// produced.
	Virtual
)

// String implements fmt.Stringer.
func (b Backend) String() string {
	switch b {
	case Segmented:
		return "segmented"
	case Virtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// Config controls page geometry and the elastic capacity behavior of a Store.
//
// Use DefaultConfig as a starting point and override individual fields:
//
//	cfg := pinstore.DefaultConfig()
//	cfg.PageSize = 256 << 10
//	store, err := pinstore.New(cfg)
type Config struct {
	// PageSize is the capacity of a single page in bytes.
	PageSize int

	// PrefetchThreshold is the usage ratio of the current page above which
	// the next page is allocated ahead of demand. Growth triggers only when
	// usage is strictly greater than the threshold. Must be in (0, 1].
	PrefetchThreshold float64

	// DecayTimeout is how long a prefetched page must sit unwritten before
	// a decay sweep may release it. A write into the page cancels decay
	// permanently.
	DecayTimeout time.Duration

	// Backend selects Segmented or Virtual page storage.
	Backend Backend

	// VirtualReserveSize is the total address range reserved by the Virtual
	// backend, in bytes. It caps the store's lifetime capacity. Ignored by
	// the Segmented backend.
	VirtualReserveSize int64
}

// DefaultConfig returns a balanced configuration for general use:
// 1 MiB segmented pages, growth past 80% usage, 5s decay.
func DefaultConfig() Config {
	return Config{
		PageSize:           1 << 20,
		PrefetchThreshold:  0.8,
		DecayTimeout:       5 * time.Second,
		Backend:            Segmented,
		VirtualReserveSize: 1 << 30,
	}
}

// PerformanceConfig returns a configuration tuned for append throughput:
// larger pages and a longer decay timeout keep capacity around longer.
func PerformanceConfig() Config {
	return Config{
		PageSize:           2 << 20,
		PrefetchThreshold:  0.8,
		DecayTimeout:       7 * time.Second,
		Backend:            Segmented,
		VirtualReserveSize: 4 << 30,
	}
}

// MemoryEfficientConfig returns a configuration tuned for a small footprint:
// smaller pages, later growth and aggressive decay.
func MemoryEfficientConfig() Config {
	return Config{
		PageSize:           512 << 10,
		PrefetchThreshold:  0.9,
		DecayTimeout:       time.Second,
		Backend:            Segmented,
		VirtualReserveSize: 256 << 20,
	}
}

func (c Config) validate() error {
	if c.PageSize <= 0 {
		return &ErrInvalidConfig{Option: "PageSize", Reason: "must be positive"}
	}
	if c.PageSize > math.MaxUint32 {
		return &ErrInvalidConfig{Option: "PageSize", Reason: "exceeds maximum page size"}
	}
	if c.PrefetchThreshold <= 0 || c.PrefetchThreshold > 1 {
		return &ErrInvalidConfig{Option: "PrefetchThreshold", Reason: "must be in (0, 1]"}
	}
	if c.DecayTimeout < 0 {
		return &ErrInvalidConfig{Option: "DecayTimeout", Reason: "must not be negative"}
	}
	switch c.Backend {
	case Segmented:
	case Virtual:
		if c.VirtualReserveSize < int64(c.PageSize) {
			return &ErrInvalidConfig{Option: "VirtualReserveSize", Reason: "smaller than one page"}
		}
		if c.VirtualReserveSize > math.MaxInt {
			return &ErrInvalidConfig{Option: "VirtualReserveSize", Reason: "exceeds addressable range"}
		}
	default:
		return &ErrInvalidConfig{Option: "Backend", Reason: "unknown backend"}
	}
	return nil
}
