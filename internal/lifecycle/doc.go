// Package lifecycle implements the elastic growth/decay policy layer.
//
// The Manager owns no storage. It is consulted after every write (growth)
// and on a periodic tick (decay), acting on the page directory through its
// contract. The two halves are deliberately asymmetric:
//
//   - Growth is eager: crossing the prefetch threshold allocates the next
//     page immediately, while there is still slack in the current page, so
//     the writer never stalls on allocation mid-burst.
//   - Decay is delayed: a prefetched page that was never written is
//     released only after it has been idle for the full decay timeout.
//     The delay prevents thrashing when a write stream hovers near the
//     threshold and would otherwise allocate and free the same trailing
//     page over and over.
//
// Decay never touches a page that has ever held data; releasing one would
// break pointer stability. Time is always passed in by the caller, so the
// policy is deterministic under test.
package lifecycle
