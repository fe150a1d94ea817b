// Package storage implements the paged storage core: pages, the two
// physical backends, and the page directory.
//
// # Backends
//
// Two physical strategies exist and the set is closed; the directory
// carries a Mode tag and switches over it exhaustively rather than
// accepting arbitrary plugins:
//
//   - Segmented: every page is an independent anonymous mapping. An object
//     that does not fit the current page skips the remainder (skip-and-pad),
//     so every stored object is contiguous within one page.
//   - Virtual: one large address range is reserved up front and logical
//     pages are committed on demand. Objects may span logical page
//     boundaries; pages exist only as the granularity of prefetch and decay.
//
// # Pointer stability
//
// Pages are never relocated. The directory grows by appending page
// descriptors and shrinks only by releasing trailing pages that were
// prefetched but never written, so an address handed out for written data
// is valid for the lifetime of the store.
//
// # Concurrency
//
// Place, Write, Prefetch, ReleaseTail and Close mutate directory state and
// require external serialization (the facade's write lock). Resolve and the
// introspection methods are lock-free: the page table is published through
// an atomic pointer and written extents through release-ordered atomics.
package storage
