package pinstore_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pinstore"
	"github.com/hupe1980/pinstore/testutil"
)

func newStore(t *testing.T, mutate func(*pinstore.Config), optFns ...pinstore.Option) *pinstore.Store {
	t.Helper()

	cfg := pinstore.DefaultConfig()
	cfg.PageSize = 4096
	if mutate != nil {
		mutate(&cfg)
	}

	store, err := pinstore.New(cfg, optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStore_AppendGet(t *testing.T) {
	for _, backend := range []pinstore.Backend{pinstore.Segmented, pinstore.Virtual} {
		t.Run(backend.String(), func(t *testing.T) {
			store := newStore(t, func(cfg *pinstore.Config) {
				cfg.Backend = backend
				cfg.VirtualReserveSize = 1 << 20
			})

			rng := testutil.NewRNG(42)
			blobs := rng.Blobs(200, 1, 2000)

			refs := make([]pinstore.Ref, len(blobs))
			for i, blob := range blobs {
				ref, err := store.Append(blob)
				require.NoError(t, err)
				require.Equal(t, len(blob), ref.Len())
				refs[i] = ref
			}

			require.Equal(t, len(blobs), store.Len())

			for i, ref := range refs {
				view, err := store.Get(ref)
				require.NoError(t, err)
				require.True(t, testutil.Equal(blobs[i], view))
			}
		})
	}
}

func TestStore_EmptyBlob(t *testing.T) {
	store := newStore(t, nil)

	_, err := store.Append(nil)
	require.ErrorIs(t, err, pinstore.ErrEmptyBlob)

	_, err = store.Append([]byte{})
	require.ErrorIs(t, err, pinstore.ErrEmptyBlob)

	assert.Equal(t, 0, store.Len())
}

func TestStore_PointerStability(t *testing.T) {
	for _, backend := range []pinstore.Backend{pinstore.Segmented, pinstore.Virtual} {
		t.Run(backend.String(), func(t *testing.T) {
			store := newStore(t, func(cfg *pinstore.Config) {
				cfg.Backend = backend
				cfg.VirtualReserveSize = 1 << 24
			})

			rng := testutil.NewRNG(7)
			early := rng.Blob(512)
			ref, err := store.Append(early)
			require.NoError(t, err)

			view, err := store.Get(ref)
			require.NoError(t, err)
			addr := uintptr(unsafe.Pointer(&view[0]))

			// Grow across many pages, then let the tail decay.
			for i := 0; i < 500; i++ {
				_, err := store.Append(rng.Blob(1000))
				require.NoError(t, err)
			}
			store.Tick(time.Now().Add(time.Hour))

			again, err := store.Get(ref)
			require.NoError(t, err)
			assert.Equal(t, addr, uintptr(unsafe.Pointer(&again[0])))
			assert.True(t, testutil.Equal(early, again))
		})
	}
}

func TestStore_GrowthHysteresis(t *testing.T) {
	// One byte past 80% of a 64000-byte page triggers exactly one prefetch.
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.PageSize = 64000
		cfg.PrefetchThreshold = 0.8
	})

	rng := testutil.NewRNG(1)

	_, err := store.Append(rng.Blob(51200))
	require.NoError(t, err)
	require.Equal(t, 1, store.PageCount(), "usage equal to the threshold must not grow")

	_, err = store.Append(rng.Blob(1))
	require.NoError(t, err)
	require.Equal(t, 2, store.PageCount(), "usage past the threshold must grow")

	// Still past the threshold, but the next page already exists.
	_, err = store.Append(rng.Blob(1))
	require.NoError(t, err)
	require.Equal(t, 2, store.PageCount())

	// Fill page 0 exactly; the handoff to the prefetched page pads nothing.
	_, err = store.Append(rng.Blob(64000 - 51202))
	require.NoError(t, err)

	ref, err := store.Append(rng.Blob(10))
	require.NoError(t, err)
	assert.Equal(t, 1, ref.Page())
	assert.Equal(t, 0, ref.Offset())
	assert.Equal(t, int64(0), store.Stats().PaddedBytes)
}

func TestStore_SegmentedPadding(t *testing.T) {
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.PageSize = 4096
		cfg.PrefetchThreshold = 1
	})

	rng := testutil.NewRNG(2)

	_, err := store.Append(rng.Blob(4000))
	require.NoError(t, err)

	// 200 > the 96 bytes left on page 0: skip and pad.
	ref, err := store.Append(rng.Blob(200))
	require.NoError(t, err)
	assert.Equal(t, 1, ref.Page())
	assert.Equal(t, 0, ref.Offset())
	assert.Equal(t, int64(96), store.Stats().PaddedBytes)
}

func TestStore_VirtualSpanning(t *testing.T) {
	// A large reservation costs address space only; pages are committed as
	// the cursor advances.
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.Backend = pinstore.Virtual
		cfg.PageSize = 64 << 10
		cfg.VirtualReserveSize = 1 << 40
	})

	rng := testutil.NewRNG(3)

	var prevEnd uintptr
	for i := 0; i < 10; i++ {
		blob := rng.Blob(100_000)
		ref, err := store.Append(blob)
		require.NoError(t, err)

		view, err := store.Get(ref)
		require.NoError(t, err)
		require.True(t, testutil.Equal(blob, view))

		start := uintptr(unsafe.Pointer(&view[0]))
		if i > 0 {
			require.Equal(t, prevEnd, start, "objects must be laid out back to back")
		}
		prevEnd = start + uintptr(len(view))
	}

	assert.Equal(t, int64(0), store.Stats().PaddedBytes)
}

func TestStore_OversizedBlob(t *testing.T) {
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.PageSize = 4096
		cfg.PrefetchThreshold = 1
	})

	rng := testutil.NewRNG(13)

	small, err := store.Append(rng.Blob(100))
	require.NoError(t, err)

	// Three pages worth of data lands contiguously on a dedicated page
	// while the cursor keeps filling the current one.
	big := rng.Blob(3 * 4096)
	ref, err := store.Append(big)
	require.NoError(t, err)
	assert.Equal(t, 0, ref.Offset())
	assert.NotEqual(t, small.Page(), ref.Page())
	assert.Equal(t, 0, store.Stats().WriteCursor)

	view, err := store.Get(ref)
	require.NoError(t, err)
	assert.True(t, testutil.Equal(big, view))

	// The next small append still goes to the original page.
	next, err := store.Append(rng.Blob(100))
	require.NoError(t, err)
	assert.Equal(t, small.Page(), next.Page())
}

func TestStore_VirtualExhaustion(t *testing.T) {
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.Backend = pinstore.Virtual
		cfg.PageSize = 4096
		cfg.VirtualReserveSize = 2 * 4096
		cfg.PrefetchThreshold = 1
	})

	rng := testutil.NewRNG(4)

	blob := rng.Blob(4096)
	ref, err := store.Append(blob)
	require.NoError(t, err)

	_, err = store.Append(rng.Blob(4096))
	require.NoError(t, err)

	_, err = store.Append(rng.Blob(1))
	require.ErrorIs(t, err, pinstore.ErrAllocationExhausted)

	// Exhaustion does not disturb written data.
	view, err := store.Get(ref)
	require.NoError(t, err)
	assert.True(t, testutil.Equal(blob, view))
}

func TestStore_PrefetchFailureKeepsAppend(t *testing.T) {
	t.Run("reserve exhausted", func(t *testing.T) {
		// One page of reserve: the post-write prefetch can never succeed,
		// but writes into the current page must keep working.
		store := newStore(t, func(cfg *pinstore.Config) {
			cfg.Backend = pinstore.Virtual
			cfg.PageSize = 4096
			cfg.VirtualReserveSize = 4096
			cfg.PrefetchThreshold = 0.5
		})

		rng := testutil.NewRNG(14)

		blob := rng.Blob(3000)
		ref, err := store.Append(blob)
		require.NoError(t, err)
		require.Equal(t, 1, store.Len())

		view, err := store.Get(ref)
		require.NoError(t, err)
		require.True(t, testutil.Equal(blob, view))

		// Still over the threshold with nowhere to grow; fitting appends
		// keep succeeding.
		_, err = store.Append(rng.Blob(100))
		require.NoError(t, err)
		assert.Equal(t, 2, store.Len())
		assert.Equal(t, 1, store.PageCount())

		// Only an overflowing append reports the exhaustion.
		_, err = store.Append(rng.Blob(2000))
		require.ErrorIs(t, err, pinstore.ErrAllocationExhausted)
	})

	t.Run("memory limit", func(t *testing.T) {
		store := newStore(t, func(cfg *pinstore.Config) {
			cfg.PageSize = 4096
			cfg.PrefetchThreshold = 0.5
		}, pinstore.WithMemoryLimit(4096))

		rng := testutil.NewRNG(15)

		_, err := store.Append(rng.Blob(3000))
		require.NoError(t, err)
		require.Equal(t, 1, store.Len())

		_, err = store.Append(rng.Blob(100))
		require.NoError(t, err)

		_, err = store.Append(rng.Blob(2000))
		require.ErrorIs(t, err, pinstore.ErrMemoryLimitExceeded)
	})
}

func TestStore_MemoryLimit(t *testing.T) {
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.PageSize = 4096
		cfg.PrefetchThreshold = 1
	}, pinstore.WithMemoryLimit(4096))

	rng := testutil.NewRNG(5)

	_, err := store.Append(rng.Blob(4096))
	require.NoError(t, err)

	_, err = store.Append(rng.Blob(1))
	require.ErrorIs(t, err, pinstore.ErrMemoryLimitExceeded)
}

func TestStore_Decay(t *testing.T) {
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.PageSize = 4096
		cfg.PrefetchThreshold = 0.5
		cfg.DecayTimeout = 5 * time.Second
	})

	rng := testutil.NewRNG(6)

	_, err := store.Append(rng.Blob(3000))
	require.NoError(t, err)
	require.Equal(t, 2, store.PageCount())
	committed := store.CommittedBytes()

	// Before the timeout the tail stays.
	require.Equal(t, 0, store.Tick(time.Now()))
	require.Equal(t, 2, store.PageCount())

	// Past the timeout the idle prefetched page is released.
	require.Equal(t, 1, store.Tick(time.Now().Add(6*time.Second)))
	require.Equal(t, 1, store.PageCount())
	assert.Less(t, store.CommittedBytes(), committed)

	// Reads are untouched by decay.
	require.Equal(t, 1, store.Len())
}

func TestStore_WriteCancelsDecay(t *testing.T) {
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.PageSize = 4096
		cfg.PrefetchThreshold = 0.5
		cfg.DecayTimeout = 5 * time.Second
	})

	rng := testutil.NewRNG(7)

	_, err := store.Append(rng.Blob(3000))
	require.NoError(t, err)
	require.Equal(t, 2, store.PageCount())

	// Fill page 0 and write into the prefetched page.
	_, err = store.Append(rng.Blob(1096))
	require.NoError(t, err)
	_, err = store.Append(rng.Blob(100))
	require.NoError(t, err)

	assert.Equal(t, 0, store.Tick(time.Now().Add(time.Hour)))
}

func TestStore_InvalidRef(t *testing.T) {
	store := newStore(t, nil)
	other := newStore(t, nil)

	ref, err := store.Append([]byte("hello"))
	require.NoError(t, err)

	t.Run("zero ref", func(t *testing.T) {
		_, err := store.Get(pinstore.Ref{})
		require.ErrorIs(t, err, pinstore.ErrInvalidRef)
	})

	t.Run("foreign ref", func(t *testing.T) {
		_, err := other.Get(ref)
		require.ErrorIs(t, err, pinstore.ErrInvalidRef)
	})
}

func TestStore_Close(t *testing.T) {
	store := newStore(t, nil)

	ref, err := store.Append([]byte("hello"))
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.Get(ref)
	require.ErrorIs(t, err, pinstore.ErrStoreClosed)

	_, err = store.Append([]byte("world"))
	require.ErrorIs(t, err, pinstore.ErrStoreClosed)
}

func TestStore_ConcurrentReaders(t *testing.T) {
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.PageSize = 8192
	})

	rng := testutil.NewRNG(8)
	blobs := rng.Blobs(100, 16, 1024)

	refs := make([]pinstore.Ref, len(blobs))
	for i, blob := range blobs {
		ref, err := store.Append(blob)
		require.NoError(t, err)
		refs[i] = ref
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 8)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < 200; iter++ {
				for i, ref := range refs {
					view, err := store.Get(ref)
					if err != nil {
						errCh <- err
						return
					}
					if !testutil.Equal(blobs[i], view) {
						errCh <- fmt.Errorf("blob %d corrupted", i)
						return
					}
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		writerRNG := testutil.NewRNG(9)
		for i := 0; i < 500; i++ {
			if _, err := store.Append(writerRNG.Blob(512)); err != nil {
				errCh <- err
				return
			}
		}
	}()

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatal(err)
	}
}

func TestStore_Metrics(t *testing.T) {
	mc := &pinstore.BasicMetricsCollector{}
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.PrefetchThreshold = 0.5
	}, pinstore.WithMetricsCollector(mc))

	rng := testutil.NewRNG(10)

	ref, err := store.Append(rng.Blob(3000))
	require.NoError(t, err)
	_, err = store.Get(ref)
	require.NoError(t, err)
	_, err = store.Append(nil)
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.AppendCount)
	assert.Equal(t, int64(1), stats.AppendErrors)
	assert.Equal(t, int64(3000), stats.AppendBytes)
	assert.Equal(t, int64(1), stats.GetCount)
	assert.Equal(t, int64(1), stats.PrefetchCount)
}

func TestStore_Stats(t *testing.T) {
	store := newStore(t, func(cfg *pinstore.Config) {
		cfg.PageSize = 4096
	})

	rng := testutil.NewRNG(11)
	_, err := store.Append(rng.Blob(100))
	require.NoError(t, err)

	stats := store.Stats()
	assert.Equal(t, pinstore.Segmented, stats.Backend)
	assert.Equal(t, 4096, stats.PageSize)
	assert.Equal(t, 1, stats.PageCount)
	assert.Equal(t, int64(1), stats.Appends)
	assert.Equal(t, int64(100), stats.AppendedBytes)
	assert.Equal(t, int64(4096), stats.CommittedBytes)
	assert.NotEmpty(t, stats.String())
}

func TestStore_DecayInterval(t *testing.T) {
	cfg := pinstore.DefaultConfig()
	cfg.PageSize = 4096
	cfg.PrefetchThreshold = 0.5
	cfg.DecayTimeout = 10 * time.Millisecond

	store, err := pinstore.New(cfg, pinstore.WithDecayInterval(5*time.Millisecond))
	require.NoError(t, err)
	defer store.Close()

	rng := testutil.NewRNG(12)
	_, err = store.Append(rng.Blob(3000))
	require.NoError(t, err)
	require.Equal(t, 2, store.PageCount())

	assert.Eventually(t, func() bool {
		return store.PageCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Close())
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pinstore.Config)
		option string
	}{
		{
			name:   "zero page size",
			mutate: func(cfg *pinstore.Config) { cfg.PageSize = 0 },
			option: "PageSize",
		},
		{
			name:   "negative page size",
			mutate: func(cfg *pinstore.Config) { cfg.PageSize = -1 },
			option: "PageSize",
		},
		{
			name:   "zero threshold",
			mutate: func(cfg *pinstore.Config) { cfg.PrefetchThreshold = 0 },
			option: "PrefetchThreshold",
		},
		{
			name:   "threshold above one",
			mutate: func(cfg *pinstore.Config) { cfg.PrefetchThreshold = 1.5 },
			option: "PrefetchThreshold",
		},
		{
			name:   "negative decay timeout",
			mutate: func(cfg *pinstore.Config) { cfg.DecayTimeout = -time.Second },
			option: "DecayTimeout",
		},
		{
			name:   "unknown backend",
			mutate: func(cfg *pinstore.Config) { cfg.Backend = pinstore.Backend(99) },
			option: "Backend",
		},
		{
			name: "reserve smaller than page",
			mutate: func(cfg *pinstore.Config) {
				cfg.Backend = pinstore.Virtual
				cfg.VirtualReserveSize = 1024
			},
			option: "VirtualReserveSize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := pinstore.DefaultConfig()
			tt.mutate(&cfg)

			_, err := pinstore.New(cfg)
			require.Error(t, err)

			var ice *pinstore.ErrInvalidConfig
			require.True(t, errors.As(err, &ice))
			assert.Equal(t, tt.option, ice.Option)
		})
	}
}

func TestConfig_Presets(t *testing.T) {
	for _, cfg := range []pinstore.Config{
		pinstore.DefaultConfig(),
		pinstore.PerformanceConfig(),
		pinstore.MemoryEfficientConfig(),
	} {
		store, err := pinstore.New(cfg)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}
}
