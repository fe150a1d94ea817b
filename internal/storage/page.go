package storage

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/pinstore/internal/mmap"
)

// PageState describes a page's position in the growth/decay lifecycle.
type PageState int32

const (
	// PageActive is a page that has received or is receiving writes.
	// An active page is never released before the store is torn down.
	PageActive PageState = iota
	// PagePrefetched is a page allocated ahead of the write cursor that has
	// never been written. Only prefetched pages are eligible for decay.
	PagePrefetched
)

// Page is a fixed-capacity append-only region plus lifecycle bookkeeping.
// The capacity is immutable; `used` is monotonically non-decreasing while
// the page is live and is published with release ordering after each copy
// completes, which is what makes lock-free reads sound.
type Page struct {
	data     []byte
	mapping  *mmap.Mapping // segmented pages own their mapping; nil for virtual views
	capacity int

	used      atomic.Int64
	state     atomic.Int32
	idleSince atomic.Int64 // unix nanos since prefetched; 0 once active
}

func newPage(data []byte, mapping *mmap.Mapping, state PageState, now time.Time) *Page {
	p := &Page{
		data:     data,
		mapping:  mapping,
		capacity: len(data),
	}
	p.state.Store(int32(state))
	if state == PagePrefetched {
		p.idleSince.Store(now.UnixNano())
	}
	return p
}

// Capacity returns the fixed byte size of the page.
func (p *Page) Capacity() int { return p.capacity }

// Used returns the bytes written (or padded) so far.
func (p *Page) Used() int { return int(p.used.Load()) }

// Remaining returns the free bytes left in the page.
func (p *Page) Remaining() int { return p.capacity - p.Used() }

// UsageRatio returns used/capacity in [0,1].
func (p *Page) UsageRatio() float64 {
	if p.capacity == 0 {
		return 0
	}
	return float64(p.Used()) / float64(p.capacity)
}

// State returns the page's lifecycle state.
func (p *Page) State() PageState { return PageState(p.state.Load()) }

// IdleSince returns the time the page entered the prefetched-and-unused
// state, and false if the page has been written since.
func (p *Page) IdleSince() (time.Time, bool) {
	ns := p.idleSince.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}

// activate transitions a prefetched page into the active state and
// permanently cancels decay for it.
func (p *Page) activate() {
	p.state.Store(int32(PageActive))
	p.idleSince.Store(0)
}

// fill marks the whole page as consumed (skip-and-pad or a fully covered
// span). The padding region is never handed out to readers.
func (p *Page) fill() {
	p.used.Store(int64(p.capacity))
}

func (p *Page) setUsed(n int) {
	p.used.Store(int64(n))
}

func (p *Page) bytes() []byte { return p.data }
