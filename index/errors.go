package index

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAttribute is returned when a query names a numeric attribute the index was not built for.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrBucketOutOfRange is returned when the requested bucket is outside [1, len(buckets)].
	ErrBucketOutOfRange = errors.New("bucket out of range")

	// ErrInvalidBucketSpec is returned when the bucket percentages do not sum to 100.
	ErrInvalidBucketSpec = errors.New("invalid bucket spec")

	// ErrInvalidQuantileGap is returned when the quantile gap does not evenly divide 100.
	ErrInvalidQuantileGap = errors.New("invalid quantile gap")

	// ErrInvalidMaxDepth is returned when the enumeration depth is less than 1.
	ErrInvalidMaxDepth = errors.New("max depth must be at least 1")

	// ErrInvalidOperator is returned for operators other than '<' and '>'.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrNoIndexForFilters is returned when no filter subset resolves to a stored list.
	ErrNoIndexForFilters = errors.New("no index for filters")

	// ErrMalformedDocument is returned when a persisted document cannot be turned into an index.
	ErrMalformedDocument = errors.New("malformed index document")
)

// QuantileGapError indicates a quantile gap that does not evenly divide 100.
//
// It matches ErrInvalidQuantileGap via errors.Is.
type QuantileGapError struct {
	Gap int
}

func (e *QuantileGapError) Error() string {
	return fmt.Sprintf("%v: %d does not divide 100", ErrInvalidQuantileGap, e.Gap)
}

func (e *QuantileGapError) Is(target error) bool { return target == ErrInvalidQuantileGap }

// ValidateGap checks that gap is a positive divisor of 100.
func ValidateGap(gap int) error {
	if gap <= 0 || gap > 100 || 100%gap != 0 {
		return &QuantileGapError{Gap: gap}
	}
	return nil
}
