package pinstore

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/pinstore/internal/conv"
	"github.com/hupe1980/pinstore/internal/lifecycle"
	"github.com/hupe1980/pinstore/internal/resource"
	"github.com/hupe1980/pinstore/internal/storage"
)

// storeIDs hands out a non-zero identity per store so that a Ref can be
// tied to the store that issued it. The zero Ref never matches.
var storeIDs atomic.Uint32

// Store is an append-only blob store with pointer stability: the address of
// a written blob never changes for the lifetime of the store. Data lives
// off-heap in page-granular mappings, so the garbage collector never scans
// or moves it.
//
// Append is serialized internally; Get, Len and the other read paths are
// lock-free and safe to call concurrently with a writer.
type Store struct {
	cfg  Config
	opts options
	id   uint32

	mu  sync.Mutex
	dir *storage.Directory
	lc  *lifecycle.Manager
	rc  *resource.Controller

	appends    atomic.Int64
	appended   atomic.Int64
	prefetches atomic.Int64
	released   atomic.Int64
	closed     atomic.Bool

	stopTicker chan struct{}
	tickerDone chan struct{}
}

// New creates a Store from the given configuration. The first page is
// allocated eagerly so the first append never pays an allocation.
func New(cfg Config, optFns ...Option) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var rc *resource.Controller
	if opts.memoryLimit > 0 || opts.prefetchRate > 0 {
		rc = resource.NewController(resource.Config{
			MemoryLimitBytes:    opts.memoryLimit,
			PrefetchPagesPerSec: opts.prefetchRate,
		})
	}

	mode := storage.ModeSegmented
	if cfg.Backend == Virtual {
		mode = storage.ModeVirtual
	}

	dir, err := storage.NewDirectory(mode, cfg.PageSize, int(cfg.VirtualReserveSize), rc, time.Now())
	if err != nil {
		return nil, translateError(err)
	}

	s := &Store{
		cfg:  cfg,
		opts: opts,
		id:   storeIDs.Add(1),
		dir:  dir,
		rc:   rc,
	}
	s.lc = lifecycle.NewManager(lifecycle.Config{
		PrefetchThreshold: cfg.PrefetchThreshold,
		DecayTimeout:      cfg.DecayTimeout,
	}, dir, rc)

	if opts.decayInterval > 0 {
		s.startTicker(opts.decayInterval)
	}

	return s, nil
}

// Append copies data into the store and returns a stable Ref to it.
// Empty blobs are rejected.
func (s *Store) Append(data []byte) (Ref, error) {
	start := time.Now()
	ref, err := s.append(data, start)
	s.opts.metricsCollector.RecordAppend(len(data), time.Since(start), err)
	s.opts.logger.LogAppend(len(data), ref.Page(), err)
	return ref, err
}

func (s *Store) append(data []byte, now time.Time) (Ref, error) {
	if s.closed.Load() {
		return Ref{}, ErrStoreClosed
	}
	if len(data) == 0 {
		return Ref{}, ErrEmptyBlob
	}

	s.mu.Lock()
	pl, err := s.dir.Place(len(data), now)
	if err != nil {
		s.mu.Unlock()
		return Ref{}, translateError(err)
	}
	if err := s.dir.Write(pl, data); err != nil {
		s.mu.Unlock()
		return Ref{}, translateError(err)
	}
	prefetched, err := s.lc.AfterWrite(now)
	s.mu.Unlock()

	if err != nil {
		// Prefetch is speculative: failing to grow ahead must not fail the
		// append that already landed. Overflow allocates on demand and
		// reports its own error.
		s.opts.logger.LogPrefetch(s.dir.PageCount(), translateError(err))
	}
	if prefetched {
		s.prefetches.Add(1)
		s.opts.metricsCollector.RecordPrefetch()
		s.opts.logger.LogPrefetch(s.dir.PageCount()-1, nil)
	}

	s.appends.Add(1)
	s.appended.Add(int64(len(data)))

	return s.makeRef(pl, len(data))
}

func (s *Store) makeRef(pl storage.Placement, n int) (Ref, error) {
	page, err := conv.IntToUint32(pl.Page)
	if err != nil {
		return Ref{}, fmt.Errorf("ref page: %w", err)
	}
	off, err := conv.IntToUint32(pl.Offset)
	if err != nil {
		return Ref{}, fmt.Errorf("ref offset: %w", err)
	}
	length, err := conv.IntToUint64(n)
	if err != nil {
		return Ref{}, fmt.Errorf("ref length: %w", err)
	}
	return Ref{store: s.id, page: page, offset: off, length: length}, nil
}

// Get resolves a Ref to the stored bytes without copying. The returned
// slice aliases the store's memory: it stays valid and in place until
// Close, and must be treated as read-only.
//
// Get is lock-free and safe to call concurrently with Append.
func (s *Store) Get(ref Ref) ([]byte, error) {
	view, err := s.get(ref)
	s.opts.metricsCollector.RecordGet(len(view), err)
	return view, err
}

func (s *Store) get(ref Ref) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	if ref.store != s.id {
		return nil, fmt.Errorf("%w: ref issued by a different store", ErrInvalidRef)
	}

	n, err := conv.Uint64ToInt(ref.length)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRef, err)
	}

	view, err := s.dir.Resolve(ref.Page(), ref.Offset(), n)
	if err != nil {
		return nil, translateError(err)
	}
	return view, nil
}

// Len returns the number of blobs appended so far.
func (s *Store) Len() int {
	return int(s.appends.Load())
}

// AppendedBytes returns the total payload bytes written, excluding padding.
func (s *Store) AppendedBytes() int64 {
	return s.appended.Load()
}

// CommittedBytes returns the bytes of page memory currently committed,
// including prefetched pages and padding.
func (s *Store) CommittedBytes() int64 {
	return s.dir.CommittedBytes()
}

// PageCount returns the number of pages currently in the directory.
func (s *Store) PageCount() int {
	return s.dir.PageCount()
}

// Tick runs one decay sweep at the given time and returns the number of
// idle prefetched pages it released. Sweeps release pages from the tail
// only; written pages are never touched.
//
// Callers that did not configure WithDecayInterval drive decay by calling
// Tick themselves, typically with time.Now().
func (s *Store) Tick(now time.Time) int {
	if s.closed.Load() {
		return 0
	}

	s.mu.Lock()
	released, err := s.lc.Tick(now)
	s.mu.Unlock()

	if err != nil {
		s.opts.logger.Error("decay sweep failed", "error", err)
	}
	if released > 0 {
		s.released.Add(int64(released))
		s.opts.metricsCollector.RecordPagesReleased(released)
		s.opts.logger.LogDecay(released, s.dir.PageCount())
	}
	return released
}

// Stats returns a point-in-time snapshot of store state.
func (s *Store) Stats() Stats {
	return Stats{
		Backend:        s.cfg.Backend,
		PageSize:       s.cfg.PageSize,
		PageCount:      s.dir.PageCount(),
		WriteCursor:    s.dir.WriteCursor(),
		Appends:        s.appends.Load(),
		AppendedBytes:  s.appended.Load(),
		PaddedBytes:    s.dir.PaddedBytes(),
		CommittedBytes: s.dir.CommittedBytes(),
		Prefetches:     s.prefetches.Load(),
		PagesReleased:  s.released.Load(),
		MemoryUsage:    s.rc.MemoryUsage(),
	}
}

// Close stops the background ticker, unmaps every page and invalidates all
// outstanding Refs. Close is idempotent.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	if s.stopTicker != nil {
		close(s.stopTicker)
		<-s.tickerDone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pages := s.dir.PageCount()
	err := s.dir.Close()
	s.opts.logger.LogClose(pages, s.appended.Load(), err)
	return err
}

func (s *Store) startTicker(interval time.Duration) {
	s.stopTicker = make(chan struct{})
	s.tickerDone = make(chan struct{})

	go func() {
		defer close(s.tickerDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopTicker:
				return
			case now := <-ticker.C:
				if s.rc.TryAcquireBackground() {
					s.Tick(now)
					s.rc.ReleaseBackground()
				}
			}
		}
	}()
}

// Stats is a point-in-time snapshot of store state.
type Stats struct {
	Backend        Backend
	PageSize       int
	PageCount      int
	WriteCursor    int
	Appends        int64
	AppendedBytes  int64
	PaddedBytes    int64
	CommittedBytes int64
	Prefetches     int64
	PagesReleased  int64
	MemoryUsage    int64
}

// String implements fmt.Stringer.
func (st Stats) String() string {
	return fmt.Sprintf("Stats{backend: %s, pages: %d, appends: %d, appended: %.2f MB, committed: %.2f MB, padded: %d B}",
		st.Backend,
		st.PageCount,
		st.Appends,
		float64(st.AppendedBytes)/(1<<20),
		float64(st.CommittedBytes)/(1<<20),
		st.PaddedBytes,
	)
}
