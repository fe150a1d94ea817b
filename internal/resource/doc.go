// Package resource implements the Controller for global limits and governance.
//
// The Controller provides centralized management of three resource types:
//
//   - Memory: track and limit the bytes held in pages (non-blocking, fail-fast)
//   - Concurrency: limit concurrent background maintenance (decay sweeps)
//   - Allocation rate: throttle speculative page pre-allocation bursts
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and an atomic
// counter for usage tracking. AcquireMemory is non-blocking and returns
// immediately with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(pageSize); err != nil {
//	    // ErrMemoryLimitExceeded - caller decides what to shed
//	}
//	defer rc.ReleaseMemory(pageSize)
//
// # Allocation Rate Limiting
//
// A token bucket bounds how many pages per second may be allocated
// speculatively. The limiter applies only to prefetch: on-demand page
// allocation on the write path is never throttled, because a denied
// prefetch merely moves the allocation back onto the next overflow.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
