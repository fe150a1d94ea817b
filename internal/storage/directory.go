package storage

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/pinstore/internal/resource"
)

// Placement describes where an appended object will be written.
type Placement struct {
	// Page is the index of the page holding the object's first byte.
	Page int
	// Offset is the intra-page byte offset of the object's first byte.
	Offset int

	global int // virtual mode: byte offset into the reserved range
}

// Directory is the ordered sequence of page descriptors layered over a
// backend. It owns placement (including the backend's overflow policy),
// offset-to-address translation, and the write cursor.
//
// Mutating methods require external serialization; Resolve and the
// introspection methods are lock-free. The page table is copy-on-write:
// every structural change publishes a fresh slice through an atomic
// pointer, so readers always observe a consistent table.
type Directory struct {
	mode     Mode
	pageSize int

	seg  *segmentedBackend
	virt *virtualBackend

	pages  atomic.Pointer[[]*Page]
	cursor atomic.Int64
	tail   int          // virtual: total bytes placed so far
	padded atomic.Int64 // segmented: bytes wasted by skip-and-pad
}

// NewDirectory creates a directory over the selected backend and allocates
// the first page, so the write cursor is valid from the start.
func NewDirectory(mode Mode, pageSize, reserveSize int, rc *resource.Controller, now time.Time) (*Directory, error) {
	d := &Directory{
		mode:     mode,
		pageSize: pageSize,
	}

	switch mode {
	case ModeSegmented:
		d.seg = &segmentedBackend{rc: rc}
	case ModeVirtual:
		virt, err := newVirtualBackend(pageSize, reserveSize, rc)
		if err != nil {
			return nil, err
		}
		d.virt = virt
	default:
		return nil, ErrUnknownMode
	}

	first, err := d.allocate(pageSize, PageActive, now)
	if err != nil {
		if d.virt != nil {
			_ = d.virt.close()
		}
		return nil, err
	}

	pages := []*Page{first}
	d.pages.Store(&pages)
	return d, nil
}

// Mode returns the backend mode tag.
func (d *Directory) Mode() Mode { return d.mode }

// PageSize returns the configured logical page size.
func (d *Directory) PageSize() int { return d.pageSize }

// PageCount returns the number of live pages.
func (d *Directory) PageCount() int { return len(d.snapshot()) }

// WriteCursor returns the index of the page currently receiving writes.
func (d *Directory) WriteCursor() int { return int(d.cursor.Load()) }

// PaddedBytes returns the bytes wasted by skip-and-pad so far.
func (d *Directory) PaddedBytes() int64 { return d.padded.Load() }

// CommittedBytes returns the bytes currently backed by physical memory.
func (d *Directory) CommittedBytes() int64 {
	switch d.mode {
	case ModeVirtual:
		return d.virt.committedBytes()
	default:
		return d.seg.committedBytes()
	}
}

// CurrentUsage returns the usage ratio of the page under the write cursor.
func (d *Directory) CurrentUsage() float64 {
	pages := d.snapshot()
	cur := d.WriteCursor()
	if cur >= len(pages) {
		return 0
	}
	return pages[cur].UsageRatio()
}

// HasNext reports whether a page with free space exists after the write
// cursor. Born-full one-off pages don't count: the cursor steps over them,
// so they never absorb overflow.
func (d *Directory) HasNext() bool {
	pages := d.snapshot()
	cur := d.WriteCursor()
	if cur >= len(pages) {
		return false
	}
	for _, p := range pages[cur+1:] {
		if p.Remaining() > 0 {
			return true
		}
	}
	return false
}

// Place determines where the next n-byte object goes, applying the active
// backend's overflow policy and allocating pages on demand.
func (d *Directory) Place(n int, now time.Time) (Placement, error) {
	if d.mode == ModeVirtual {
		return d.placeVirtual(n, now)
	}
	return d.placeSegmented(n, now)
}

// Write copies data into its placement. The written extent is published
// with release ordering only after the copy, so a reference handed out for
// this region is always safe to resolve.
func (d *Directory) Write(pl Placement, data []byte) error {
	if d.mode == ModeVirtual {
		return d.virt.writeSpan(pl.global, data)
	}
	pages := d.snapshot()
	if pl.Page >= len(pages) {
		return ErrUnknownPage
	}
	d.seg.write(pages[pl.Page], pl.Offset, data)
	return nil
}

// Resolve returns a read-only view of the range described by a reference.
// Safe to call concurrently with appends and ticks; never locks.
func (d *Directory) Resolve(page, off, n int) ([]byte, error) {
	if page < 0 || off < 0 || n < 0 {
		return nil, ErrOutOfRange
	}

	pages := d.snapshot()
	if page >= len(pages) {
		return nil, ErrUnknownPage
	}

	if d.mode == ModeVirtual {
		return d.virt.slice(page*d.pageSize+off, n)
	}

	p := pages[page]
	if off+n > p.Used() {
		return nil, ErrOutOfRange
	}
	return p.bytes()[off : off+n : off+n], nil
}

// Prefetch allocates one page ahead of the write cursor in the prefetched
// state. Callers guard with HasNext, which makes the operation idempotent.
func (d *Directory) Prefetch(now time.Time) error {
	p, err := d.allocate(d.pageSize, PagePrefetched, now)
	if err != nil {
		return err
	}
	pages := d.snapshot()
	grown := append(append([]*Page(nil), pages...), p)
	d.publish(grown)
	return nil
}

// TailIdle returns the trailing page if it is still prefetched and unused.
func (d *Directory) TailIdle() (*Page, bool) {
	pages := d.snapshot()
	if len(pages) == 0 {
		return nil, false
	}
	last := pages[len(pages)-1]
	if last.State() == PagePrefetched && last.Used() == 0 {
		return last, true
	}
	return nil, false
}

// ReleaseTail unlists and releases the trailing page. Callers must have
// verified via TailIdle that the page never held data; the page is removed
// from the table before its backing is released, so no in-flight Resolve
// can race the release.
func (d *Directory) ReleaseTail() error {
	pages := d.snapshot()
	last := len(pages) - 1
	if last <= d.WriteCursor() {
		return ErrUnknownPage
	}

	shrunk := append([]*Page(nil), pages[:last]...)
	d.publish(shrunk)

	switch d.mode {
	case ModeVirtual:
		return d.virt.releaseTail()
	default:
		return d.seg.releasePage(pages[last])
	}
}

// Close releases every page and, in virtual mode, the reserved range.
// No partial-teardown state is observable: the table is emptied first, so
// late readers get ErrUnknownPage instead of a view into freed memory.
func (d *Directory) Close() error {
	pages := d.snapshot()
	empty := []*Page{}
	d.pages.Store(&empty)

	switch d.mode {
	case ModeVirtual:
		return d.virt.close()
	default:
		var firstErr error
		for _, p := range pages {
			if err := d.seg.releasePage(p); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
}

func (d *Directory) placeSegmented(n int, now time.Time) (Placement, error) {
	pages := d.snapshot()
	cursor := d.WriteCursor()
	if cursor >= len(pages) {
		return Placement{}, ErrUnknownPage
	}
	cur := pages[cursor]

	if n <= cur.Remaining() {
		return Placement{Page: cursor, Offset: cur.Used()}, nil
	}

	if n > d.pageSize {
		// Oversized object: dedicated one-off page at the tail. The page is
		// born full-sized for the object, so the cursor keeps filling the
		// current page and skips the one-off naturally when it advances.
		p, err := d.seg.allocatePage(n, PageActive, now)
		if err != nil {
			return Placement{}, err
		}
		grown := append(append([]*Page(nil), pages...), p)
		d.publish(grown)
		return Placement{Page: len(grown) - 1, Offset: 0}, nil
	}

	// Skip-and-pad: the remainder of the current page is wasted and the
	// object starts at offset 0 of the next page with room.
	d.padded.Add(int64(cur.Remaining()))
	cur.fill()

	idx := cursor + 1
	for {
		if idx < len(pages) {
			p := pages[idx]
			p.activate()
			if p.Remaining() >= n {
				d.cursor.Store(int64(idx))
				return Placement{Page: idx, Offset: p.Used()}, nil
			}
			// Born-full one-off page in the way; step over it.
			idx++
			continue
		}

		p, err := d.seg.allocatePage(d.pageSize, PageActive, now)
		if err != nil {
			return Placement{}, err
		}
		pages = append(append([]*Page(nil), pages...), p)
		d.publish(pages)
		d.cursor.Store(int64(idx))
		return Placement{Page: idx, Offset: 0}, nil
	}
}

func (d *Directory) placeVirtual(n int, now time.Time) (Placement, error) {
	start := d.tail
	end := start + n
	lastPage := (end - 1) / d.pageSize

	// Commit any missing pages first. They stay prefetched until the whole
	// range is available, so a mid-span allocation failure leaves only
	// decayable empty pages behind and the store in its last good state.
	pages := d.snapshot()
	grown := false
	for len(pages) <= lastPage {
		p, err := d.virt.allocatePage(PagePrefetched, now)
		if err != nil {
			if grown {
				d.publish(pages)
			}
			return Placement{}, err
		}
		if !grown {
			pages = append([]*Page(nil), pages...)
			grown = true
		}
		pages = append(pages, p)
	}
	if grown {
		d.publish(pages)
	}

	startPage := start / d.pageSize
	for i := startPage; i <= lastPage; i++ {
		p := pages[i]
		p.activate()
		if i < lastPage {
			p.fill()
		} else {
			p.setUsed(end - lastPage*d.pageSize)
		}
	}

	d.tail = end
	d.cursor.Store(int64(lastPage))
	return Placement{
		Page:   startPage,
		Offset: start - startPage*d.pageSize,
		global: start,
	}, nil
}

func (d *Directory) allocate(capacity int, state PageState, now time.Time) (*Page, error) {
	switch d.mode {
	case ModeVirtual:
		return d.virt.allocatePage(state, now)
	default:
		return d.seg.allocatePage(capacity, state, now)
	}
}

func (d *Directory) snapshot() []*Page {
	return *d.pages.Load()
}

func (d *Directory) publish(pages []*Page) {
	d.pages.Store(&pages)
}
