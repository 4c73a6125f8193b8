package segbloom

import (
	"errors"
	"fmt"
)

var (
	// ErrSegmentClosed is reported by segments closed during an operation.
	ErrSegmentClosed = errors.New("segment closed")

	// ErrInvalidMaxDocs is returned for a non-positive build ceiling.
	ErrInvalidMaxDocs = errors.New("max docs must be positive")

	// ErrInvalidStaleRatio is returned for a staleness ratio outside (0, 1].
	ErrInvalidStaleRatio = errors.New("stale ratio must be in (0, 1]")

	// ErrInvalidStaleMinDocs is returned for a negative staleness floor.
	ErrInvalidStaleMinDocs = errors.New("stale min docs must not be negative")

	// ErrInvalidBitsPerKey is returned for bits per key outside [1, 64].
	ErrInvalidBitsPerKey = errors.New("bits per key must be in [1, 64]")
)

// ConfigError reports an invalid option passed to New.
//
// The underlying sentinel (or parse error) can be accessed via errors.Unwrap.
type ConfigError struct {
	Option string
	Value  any
	cause  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Option, e.Value, e.cause)
}

func (e *ConfigError) Unwrap() error { return e.cause }
