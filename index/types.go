package index

import (
	"fmt"
	"maps"
	"slices"
)

// QuantileList holds the boundary values of one (attribute, filter set) pair.
// Entry i is the value at percentile i*gap.
type QuantileList []float64

// Map maps canonical keys to quantile lists.
type Map map[string]QuantileList

// Keys returns the sorted keys.
func (m Map) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Clone returns a deep copy.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// ListLen returns the number of boundaries per list for gap.
func ListLen(gap int) int {
	return 100/gap + 1
}

// Operator selects which boundary of a bucket a query returns.
type Operator byte

const (
	// Below returns the upper boundary of a bucket.
	Below Operator = '<'

	// Above returns the lower boundary of a bucket.
	Above Operator = '>'
)

// ParseOperator parses "<" or ">".
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "<":
		return Below, nil
	case ">":
		return Above, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperator, s)
	}
}

func (o Operator) String() string {
	return string(rune(o))
}

// Valid reports whether o is '<' or '>'.
func (o Operator) Valid() bool {
	return o == Below || o == Above
}

// DefaultBuckets returns the quartile split [25, 25, 25, 25].
func DefaultBuckets() []int {
	return []int{25, 25, 25, 25}
}
