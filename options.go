package segbloom

import (
	"math"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/segbloom/membership"
)

const (
	// DefaultMaxDocs is the build ceiling: segments with at least this many
	// live documents are never given a filter.
	DefaultMaxDocs = 500_000_000

	// DefaultStaleMinDocs is the document count below which a filter is
	// never considered stale.
	DefaultStaleMinDocs = 1000

	// DefaultStaleRatio is the live/built document ratio below which a
	// filter is rebuilt.
	DefaultStaleRatio = 0.6

	// DefaultBitsPerKey sizes new filters.
	DefaultBitsPerKey = 15
)

type options struct {
	maxDocs      int
	maxSize      string
	staleMinDocs int
	staleRatio   float64
	bitsPerKey   int

	executor Executor
	factory  membership.Factory
	logger   *Logger
	metrics  MetricsCollector

	memoryLimit         int64
	maxConcurrentBuilds int64
	scanBytesPerSec     int64
}

func defaultOptions() options {
	return options{
		maxDocs:      DefaultMaxDocs,
		staleMinDocs: DefaultStaleMinDocs,
		staleRatio:   DefaultStaleRatio,
		bitsPerKey:   DefaultBitsPerKey,
	}
}

// Option configures a Cache.
type Option func(*options)

// WithMaxDocs sets the build ceiling in documents.
func WithMaxDocs(n int) Option {
	return func(o *options) {
		o.maxDocs = n
		o.maxSize = ""
	}
}

// WithMaxSize sets the build ceiling from a human readable count such as
// "500m" or "2G" (decimal units). Parse errors are returned by New.
func WithMaxSize(size string) Option {
	return func(o *options) {
		o.maxSize = size
	}
}

// WithStaleness sets the rebuild policy: a filter built over more than
// minDocs documents is rebuilt once live/built drops below ratio.
func WithStaleness(minDocs int, ratio float64) Option {
	return func(o *options) {
		o.staleMinDocs = minDocs
		o.staleRatio = ratio
	}
}

// WithBitsPerKey sets the filter budget per expected key.
func WithBitsPerKey(bits int) Option {
	return func(o *options) {
		o.bitsPerKey = bits
	}
}

// WithExecutor sets the executor used for async builds.
//
// If none is set, New creates a worker pool owned (and closed) by the Cache.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithFilterFactory sets the factory for new filters.
//
// If nil is passed, membership.Standard is used.
func WithFilterFactory(f membership.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithMemoryLimit caps the bytes held by published filters. A filter that
// would exceed the limit is dropped and its field keeps its previous filter.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMaxConcurrentBuilds bounds async builds running at once.
// Defaults to 1 when a memory limit or scan rate is configured.
func WithMaxConcurrentBuilds(n int64) Option {
	return func(o *options) {
		o.maxConcurrentBuilds = n
	}
}

// WithScanRateLimit throttles key enumeration to bytesPerSec.
func WithScanRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.scanBytesPerSec = bytesPerSec
	}
}

func (o *options) validate() error {
	if o.maxSize != "" {
		n, err := humanize.ParseBytes(o.maxSize)
		if err != nil {
			return &ConfigError{Option: "max size", Value: o.maxSize, cause: err}
		}
		if n > math.MaxInt {
			n = math.MaxInt
		}
		o.maxDocs = int(n)
	}
	if o.maxDocs <= 0 {
		return &ConfigError{Option: "max docs", Value: o.maxDocs, cause: ErrInvalidMaxDocs}
	}
	if o.staleMinDocs < 0 {
		return &ConfigError{Option: "stale min docs", Value: o.staleMinDocs, cause: ErrInvalidStaleMinDocs}
	}
	if !(o.staleRatio > 0 && o.staleRatio <= 1) {
		return &ConfigError{Option: "stale ratio", Value: o.staleRatio, cause: ErrInvalidStaleRatio}
	}
	if o.bitsPerKey < 1 || o.bitsPerKey > 64 {
		return &ConfigError{Option: "bits per key", Value: o.bitsPerKey, cause: ErrInvalidBitsPerKey}
	}
	return nil
}
