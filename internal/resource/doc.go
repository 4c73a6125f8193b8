// Package resource governs the resources spent on membership filters.
//
// A Controller tracks three things:
//
//   - Memory: bytes held by published filters (non-blocking, fail-fast).
//   - Build slots: how many background builds may enumerate keys at once.
//   - Scan rate: a token bucket over enumerated key bytes, so rebuilding
//     filters does not starve foreground reads of the same segments.
//
// All methods are safe for concurrent use, and a nil *Controller is valid:
// every method becomes a no-op.
package resource
