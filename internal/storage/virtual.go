package storage

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/pinstore/internal/mmap"
	"github.com/hupe1980/pinstore/internal/resource"
)

// virtualBackend slices logical pages out of one reserved address range and
// commits physical memory only as the high-water mark advances. Translation
// is pure arithmetic off the base address, so a logical page keeps its
// address across decommit/recommit cycles and objects may span page
// boundaries without ever being split.
type virtualBackend struct {
	res      *mmap.Reservation
	pageSize int
	rc       *resource.Controller

	committedPages atomic.Int64
	written        atomic.Int64 // bytes whose writes have completed
}

func newVirtualBackend(pageSize, reserveSize int, rc *resource.Controller) (*virtualBackend, error) {
	res, err := mmap.Reserve(reserveSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocFailed, err)
	}
	return &virtualBackend{
		res:      res,
		pageSize: pageSize,
		rc:       rc,
	}, nil
}

// allocatePage commits the next logical page of the reserved range.
// Fails with ErrReserveExhausted once the reservation is fully committed;
// that is a capacity error, not a transient condition, and is not retried.
func (b *virtualBackend) allocatePage(state PageState, now time.Time) (*Page, error) {
	idx := int(b.committedPages.Load())
	off := idx * b.pageSize
	if off+b.pageSize > b.res.Size() {
		return nil, ErrReserveExhausted
	}

	if err := b.rc.AcquireMemory(int64(b.pageSize)); err != nil {
		return nil, err
	}
	if err := b.res.Commit(off, b.pageSize); err != nil {
		b.rc.ReleaseMemory(int64(b.pageSize))
		return nil, fmt.Errorf("%w: %w", ErrAllocFailed, err)
	}

	view, err := b.res.Slice(off, b.pageSize)
	if err != nil {
		b.rc.ReleaseMemory(int64(b.pageSize))
		return nil, err
	}

	b.committedPages.Add(1)
	return newPage(view, nil, state, now), nil
}

// releaseTail decommits the physical backing of the last committed logical
// page. The virtual addresses stay reserved, so no later allocation can
// hand out a conflicting address.
func (b *virtualBackend) releaseTail() error {
	idx := int(b.committedPages.Load()) - 1
	if idx < 0 {
		return ErrUnknownPage
	}
	if err := b.res.Decommit(idx*b.pageSize, b.pageSize); err != nil {
		return err
	}
	b.committedPages.Add(-1)
	b.rc.ReleaseMemory(int64(b.pageSize))
	return nil
}

// writeSpan copies data at the global byte offset. The covering pages must
// already be committed. The write high-water mark is published only after
// the copy completes.
func (b *virtualBackend) writeSpan(global int, data []byte) error {
	dst, err := b.res.Slice(global, len(data))
	if err != nil {
		return err
	}
	copy(dst, data)
	b.written.Store(int64(global + len(data)))
	return nil
}

// slice returns a read-only view of [global, global+n), bounded by the
// completed-write high-water mark.
func (b *virtualBackend) slice(global, n int) ([]byte, error) {
	if int64(global)+int64(n) > b.written.Load() {
		return nil, ErrOutOfRange
	}
	return b.res.Slice(global, n)
}

func (b *virtualBackend) committedBytes() int64 {
	return b.committedPages.Load() * int64(b.pageSize)
}

// close releases the entire reservation, committed or not, back to the OS.
func (b *virtualBackend) close() error {
	b.rc.ReleaseMemory(b.committedBytes())
	b.committedPages.Store(0)
	return b.res.Close()
}
