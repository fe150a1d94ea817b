// Package mmap provides anonymous memory mappings for off-heap page storage.
//
// # Overview
//
// The store keeps page payloads outside the Go heap so that the garbage
// collector never scans or moves them. Two primitives are exposed:
//
//   - Mapping: an independent read-write anonymous mapping, used by the
//     segmented backend as the physical block behind a single page.
//   - Reservation: a large address range reserved up front without physical
//     backing, used by the virtual backend. Logical pages are committed on
//     demand and decommitted again when they decay, while the address range
//     itself stays reserved for the lifetime of the store.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2), mprotect(2), madvise(2)
//   - Windows: VirtualAlloc/VirtualFree with MEM_RESERVE/MEM_COMMIT
//
// # Thread Safety
//
// Mapping and Reservation are safe for concurrent read access. Close is
// idempotent and protected by atomic operations. Callers must ensure no
// goroutine touches Bytes() after Close() returns, and must not read a
// reserved range that has not been committed.
package mmap
