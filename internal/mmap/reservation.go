package mmap

import (
	"os"
	"sync/atomic"
)

// Reservation is a large reserved address range without physical backing.
// Sub-ranges are committed on demand via Commit and can later be
// decommitted again via Decommit; the addresses stay reserved either way,
// so a pointer into a committed range is stable for the lifetime of the
// reservation.
type Reservation struct {
	data    []byte
	size    int
	closed  atomic.Bool
	release func([]byte) error
}

// Reserve reserves size bytes of virtual address space with no physical
// backing. Reading or writing the range before Commit faults.
func Reserve(size int) (*Reservation, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	data, releaseFunc, err := osReserve(size)
	if err != nil {
		return nil, err
	}

	return &Reservation{
		data:    data,
		size:    size,
		release: releaseFunc,
	}, nil
}

// Size returns the reserved size in bytes.
func (r *Reservation) Size() int {
	return r.size
}

// Slice returns a view of the range [off, off+n).
// The caller must ensure the range has been committed before accessing it.
func (r *Reservation) Slice(off, n int) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if off < 0 || n < 0 || off+n > r.size {
		return nil, ErrOutOfBounds
	}
	return r.data[off : off+n : off+n], nil
}

// Commit backs the range [off, off+n) with physical memory.
// The range is widened outward to OS page boundaries; re-committing an
// already committed OS page is a no-op at the kernel level.
func (r *Reservation) Commit(off, n int) error {
	if r.closed.Load() {
		return ErrClosed
	}
	lo, hi, ok := r.alignOutward(off, n)
	if !ok {
		return ErrOutOfBounds
	}
	if lo >= hi {
		return nil
	}
	return osCommit(r.data[lo:hi])
}

// Decommit releases the physical backing of [off, off+n) while keeping the
// addresses reserved. The caller must only decommit trailing ranges that
// contain no live data: the start is rounded up to an OS page boundary and
// the end is rounded outward, mirroring what Commit committed.
func (r *Reservation) Decommit(off, n int) error {
	if r.closed.Load() {
		return ErrClosed
	}
	lo, hi, ok := r.alignDecommit(off, n)
	if !ok {
		return ErrOutOfBounds
	}
	if lo >= hi {
		return nil
	}
	return osDecommit(r.data[lo:hi])
}

// Close releases the entire reservation back to the OS. It is idempotent.
func (r *Reservation) Close() error {
	if r.closed.Swap(true) {
		return nil // Already closed
	}
	if r.release != nil && r.data != nil {
		return r.release(r.data)
	}
	return nil
}

func (r *Reservation) alignOutward(off, n int) (lo, hi int, ok bool) {
	if off < 0 || n < 0 || off+n > r.size {
		return 0, 0, false
	}
	ps := os.Getpagesize()
	lo = (off / ps) * ps
	hi = ((off + n + ps - 1) / ps) * ps
	if hi > r.size {
		hi = r.size
	}
	return lo, hi, true
}

func (r *Reservation) alignDecommit(off, n int) (lo, hi int, ok bool) {
	if off < 0 || n < 0 || off+n > r.size {
		return 0, 0, false
	}
	ps := os.Getpagesize()
	lo = ((off + ps - 1) / ps) * ps
	hi = ((off + n + ps - 1) / ps) * ps
	if hi > r.size {
		hi = r.size
	}
	return lo, hi, true
}
