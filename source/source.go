// Package source defines the data-side collaborators of the indexer.
//
// A Source answers two questions for a numeric attribute and a filter set: how
// many records match, and which value sits at a given rank when the matching
// records are sorted ascending by that attribute. A Discovery reports which
// categorical and numeric attributes exist.
//
// # Built-in Implementations
//
//   - memory.Source: in-memory records with roaring posting bitmaps
//   - sqlsource.Source: any database/sql backend (DuckDB, SQLite, PostgreSQL)
//
// Sources are called from multiple goroutines during a parallel build and must
// be safe for concurrent use.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/qbucket/filter"
)

var (
	// ErrRankOutOfRange is returned by ValueAt when rank is outside the filtered partition.
	ErrRankOutOfRange = errors.New("rank out of range")

	// ErrUnknownAttribute is returned when a source does not know an attribute.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrInvalidRecord is returned when a record cannot be ingested.
	ErrInvalidRecord = errors.New("invalid record")
)

// Source supplies counts and ranked values for (attribute, filter set) pairs.
type Source interface {
	// Count returns the number of records matching filters that carry attribute.
	Count(ctx context.Context, attribute string, filters filter.Set) (int, error)

	// ValueAt returns the value of attribute at rank (0-based) among the records
	// matching filters, sorted ascending by attribute.
	ValueAt(ctx context.Context, attribute string, rank int, filters filter.Set) (float64, error)
}

// Discovery reports the attributes a source knows about. Results are treated as
// immutable once returned.
type Discovery interface {
	// CategoricalAttributes returns every categorical attribute with its observed values.
	CategoricalAttributes(ctx context.Context) (map[string][]string, error)

	// NumericAttributes returns the numeric attribute names.
	NumericAttributes(ctx context.Context) ([]string, error)
}

// Catalog is a Source that can also describe its attributes.
type Catalog interface {
	Source
	Discovery
}

// Error is a backend failure raised at the source boundary.
//
// The original underlying error can be accessed via errors.Unwrap.
type Error struct {
	Op        string
	Attribute string
	Err       error
}

func (e *Error) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("source %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("source %s %q: %v", e.Op, e.Attribute, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
