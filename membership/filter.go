package membership

// Filter is an immutable approximate set.
type Filter interface {
	// MightContain reports whether key may be in the set.
	// A false result is definitive.
	MightContain(key []byte) bool

	// SizeInBytes returns the memory held by the filter.
	SizeInBytes() int64
}

// Builder is a filter under construction. Add must not be called
// concurrently, and not at all once the filter has been published.
type Builder interface {
	Filter
	Add(key []byte)
}

// Factory creates empty builders sized for an expected number of keys.
type Factory interface {
	// New returns a builder for expectedInsertions keys using roughly
	// bitsPerKey bits of filter per key.
	New(expectedInsertions, bitsPerKey int) Builder
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(expectedInsertions, bitsPerKey int) Builder

// New implements Factory.
func (f FactoryFunc) New(expectedInsertions, bitsPerKey int) Builder {
	return f(expectedInsertions, bitsPerKey)
}

var (
	// Empty never contains a key.
	Empty Filter = emptyFilter{}

	// None has never been populated and contains every key.
	None Filter = noneFilter{}
)

type emptyFilter struct{}

func (emptyFilter) MightContain([]byte) bool { return false }
func (emptyFilter) SizeInBytes() int64        { return 0 }
func (emptyFilter) String() string            { return "membership.Empty" }

type noneFilter struct{}

func (noneFilter) MightContain([]byte) bool { return true }
func (noneFilter) SizeInBytes() int64        { return 0 }
func (noneFilter) String() string            { return "membership.None" }

// IsNone reports whether f is the None placeholder (or nil).
func IsNone(f Filter) bool {
	if f == nil {
		return true
	}
	_, ok := f.(noneFilter)
	return ok
}

// IsEmpty reports whether f is the Empty singleton.
func IsEmpty(f Filter) bool {
	_, ok := f.(emptyFilter)
	return ok
}
