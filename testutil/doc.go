// Package testutil provides testing utilities for pinstore.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating deterministic random blobs and
// verifying that stored views stay bitwise intact.
//
//	rng := testutil.NewRNG(seed)
//	blob := rng.Blob(1024)
//	blobs := rng.Blobs(100, 16, 4096)
package testutil
