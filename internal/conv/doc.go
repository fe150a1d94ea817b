// Package conv provides safe integer type conversion utilities.
//
// These functions perform bounds checking to prevent integer overflow when
// converting between Go's platform-dependent int and the fixed-width types
// stored in stable references (page indexes and intra-page offsets).
//
// For conversions that are provably safe by domain constraints (e.g. loop
// indices, bounded counters), use direct type casts instead to avoid overhead.
package conv
