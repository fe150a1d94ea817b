// Package pinstore provides an in-process append-only blob store with
// pointer stability.
//
// Blobs are copied into page-granular off-heap mappings and addressed by a
// small Ref value. Once written, a blob never moves: the slice returned by
// Get points at the same memory for the lifetime of the store, which makes
// it safe to hold raw views across later appends. The store grows ahead of
// the write cursor when the current page fills past a configurable
// threshold, and releases speculative pages again after they sit idle past
// a decay timeout, so capacity tracks the workload in both directions.
//
// Two backends are available. Segmented allocates each page as its own
// anonymous mapping and never splits a blob across pages, padding the tail
// of a page when the next blob does not fit. Virtual reserves a single
// contiguous address range up front and commits physical memory page by
// page, so blobs may span page boundaries and no padding is produced.
//
// Basic usage:
//
//	store, err := pinstore.New(pinstore.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	ref, err := store.Append([]byte("hello"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	data, err := store.Get(ref)
//
// Append is serialized internally; Get is lock-free and safe to call
// concurrently with a writer.
package pinstore
