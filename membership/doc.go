// Package membership defines the approximate membership filters cached by segbloom.
//
// A membership filter answers "possibly present" or "definitely absent" for a key,
// with one-sided error: a key that was added is always reported as possibly present.
//
// # Filters
//
// Two process-wide singletons cover the degenerate cases:
//
//   - Empty: built for segments without live documents, never contains anything.
//   - None: placeholder for "never populated", conservatively contains everything.
//
// Real filters are created through a Factory:
//
//   - Standard: classic bloom filter backed by bits-and-blooms/bloom.
//   - Blocked: cache-line blocked bloom filter (one xxh3 hash per key, all probes
//     inside a single 512-bit block).
//
// # Serialization
//
// Marshal and Unmarshal encode any filter produced by this package, including the
// singletons, behind a one byte kind header.
package membership
