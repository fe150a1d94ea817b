package lifecycle

import (
	"time"

	"github.com/hupe1980/pinstore/internal/resource"
	"github.com/hupe1980/pinstore/internal/storage"
)

// Config holds the policy knobs. Immutable after construction.
type Config struct {
	// PrefetchThreshold is the usage ratio of the current write page above
	// which (strictly) the next page is pre-allocated. In (0,1].
	PrefetchThreshold float64

	// DecayTimeout is how long a prefetched page must stay unused before it
	// is released.
	DecayTimeout time.Duration
}

// Manager couples the growth controller and the decay manager. Callers must
// hold the store's write lock for AfterWrite and Tick: both read-then-write
// the same directory state a concurrent append would race with.
type Manager struct {
	cfg Config
	dir *storage.Directory
	rc  *resource.Controller
}

// NewManager creates a lifecycle manager acting on the given directory.
// The resource controller may be nil.
func NewManager(cfg Config, dir *storage.Directory, rc *resource.Controller) *Manager {
	return &Manager{
		cfg: cfg,
		dir: dir,
		rc:  rc,
	}
}

// AfterWrite runs the growth check: if the current write page has crossed
// the prefetch threshold and no writable page exists after the cursor, one
// page is allocated ahead of time. The guard makes repeated over-threshold
// writes idempotent. Reports whether a page was prefetched. A non-nil error
// means only the speculative allocation failed; the write that triggered
// the check has already landed, so callers treat it as a skipped prefetch.
func (m *Manager) AfterWrite(now time.Time) (bool, error) {
	if m.dir.CurrentUsage() <= m.cfg.PrefetchThreshold {
		return false, nil
	}
	if m.dir.HasNext() {
		return false, nil
	}
	if !m.rc.AllowPrefetch() {
		// Rate limit denied the speculative allocation; the next overflow
		// will allocate on demand instead.
		return false, nil
	}
	if err := m.dir.Prefetch(now); err != nil {
		return false, err
	}
	return true, nil
}

// Tick runs one decay sweep: trailing pages that are still prefetched and
// unused, and have been idle for at least DecayTimeout, are released.
// Returns the number of pages released.
func (m *Manager) Tick(now time.Time) (int, error) {
	released := 0
	for {
		p, ok := m.dir.TailIdle()
		if !ok {
			break
		}
		since, ok := p.IdleSince()
		if !ok || now.Sub(since) < m.cfg.DecayTimeout {
			break
		}
		if err := m.dir.ReleaseTail(); err != nil {
			return released, err
		}
		released++
	}
	return released, nil
}
