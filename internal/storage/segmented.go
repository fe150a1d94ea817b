package storage

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/pinstore/internal/mmap"
	"github.com/hupe1980/pinstore/internal/resource"
)

// segmentedBackend materializes every page as its own anonymous mapping.
// Pages live off-heap, so the garbage collector never scans or moves them,
// and releasing a page returns its memory to the OS immediately.
type segmentedBackend struct {
	rc        *resource.Controller
	committed atomic.Int64
}

// allocatePage maps one new block of the given capacity. Oversized one-off
// pages pass a capacity larger than the configured page size.
func (b *segmentedBackend) allocatePage(capacity int, state PageState, now time.Time) (*Page, error) {
	if err := b.rc.AcquireMemory(int64(capacity)); err != nil {
		return nil, err
	}

	m, err := mmap.MapAnon(capacity)
	if err != nil {
		b.rc.ReleaseMemory(int64(capacity))
		return nil, fmt.Errorf("%w: %w", ErrAllocFailed, err)
	}

	b.committed.Add(int64(capacity))
	return newPage(m.Bytes(), m, state, now), nil
}

func (b *segmentedBackend) releasePage(p *Page) error {
	if p.mapping != nil {
		if err := p.mapping.Close(); err != nil {
			return err
		}
	}
	b.committed.Add(-int64(p.capacity))
	b.rc.ReleaseMemory(int64(p.capacity))
	return nil
}

// write copies data into the page and publishes the new written extent.
// The store release-orders `used` after the copy so lock-free readers never
// observe a region whose bytes are still in flight.
func (b *segmentedBackend) write(p *Page, off int, data []byte) {
	copy(p.data[off:], data)
	p.used.Store(int64(off + len(data)))
}

func (b *segmentedBackend) committedBytes() int64 {
	return b.committed.Load()
}
