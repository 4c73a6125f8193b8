// Package testutil provides testing utilities for segbloom.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded, thread-safe generators for filter keys and for
// skewed field values.
//
// # Key Generation
//
//	rng := testutil.NewRNG(seed)
//	present := rng.DistinctKeys("in-", 10000)
//	absent := rng.DistinctKeys("out-", 10000)
//
// # Skewed Field Values
//
//	colors := rng.ZipfDocs(numDocs, []string{"red", "blue", "green"}, 1.5)
package testutil
