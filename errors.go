package qbucket

import (
	"errors"
	"fmt"

	"github.com/hupe1980/qbucket/catalog"
	"github.com/hupe1980/qbucket/codec"
	"github.com/hupe1980/qbucket/index"
	"github.com/hupe1980/qbucket/source"
)

// Query and build errors, shared with package index and indexer.
var (
	ErrUnknownAttribute   = index.ErrUnknownAttribute
	ErrBucketOutOfRange   = index.ErrBucketOutOfRange
	ErrInvalidBucketSpec  = index.ErrInvalidBucketSpec
	ErrInvalidQuantileGap = index.ErrInvalidQuantileGap
	ErrNoIndexForFilters  = index.ErrNoIndexForFilters
	ErrInvalidOperator    = index.ErrInvalidOperator
	ErrMalformedDocument  = index.ErrMalformedDocument
	ErrInvalidMaxDepth    = index.ErrInvalidMaxDepth
)

var (
	// ErrNotFound is returned when a catalog holds no index (version).
	ErrNotFound = catalog.ErrNotFound

	// ErrInvalidInput groups argument errors: unknown attributes, bad bucket
	// specs, bad operators and invalid build parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorrupt is returned when persisted data fails integrity checks.
	ErrCorrupt = errors.New("corrupt index data")
)

// SourceError is a backend failure raised by a source during a build.
//
// The original underlying error can be accessed via errors.Unwrap.
type SourceError = source.Error

// IsInvalidInput reports whether err was caused by caller input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Integrity unification. A malformed document may also wrap an argument
	// sentinel; it is still corrupt data, not caller input.
	if errors.Is(err, codec.ErrCorrupt) || errors.Is(err, index.ErrMalformedDocument) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	// Argument normalization.
	for _, sentinel := range []error{
		index.ErrUnknownAttribute,
		index.ErrBucketOutOfRange,
		index.ErrInvalidBucketSpec,
		index.ErrInvalidQuantileGap,
		index.ErrInvalidOperator,
		index.ErrInvalidMaxDepth,
	} {
		if errors.Is(err, sentinel) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	return err
}
