// Package index provides the immutable quantile-bucket index and its query engine.
//
// An Index maps canonical keys (see filter.CanonicalKey) to quantile lists and
// answers bucket-boundary queries. When the exact filter combination was not
// indexed, filters are relaxed one at a time until a stored list is found.
//
// An Index never changes after construction and is safe for concurrent use
// without locking.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hupe1980/qbucket/filter"
)

// Index is an immutable quantile-bucket index.
type Index struct {
	gap         int
	depth       int
	entries     Map
	categorical []string
	numeric     []string
	logger      *slog.Logger
}

// Options configures an Index.
type Options struct {
	// Logger receives debug query output. Nil discards.
	Logger *slog.Logger
}

// WithLogger sets the logger used by debug queries.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// New creates an index. entries is copied.
func New(gap, depth int, entries Map, categorical, numeric []string, optFns ...func(*Options)) (*Index, error) {
	if err := ValidateGap(gap); err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxDepth, depth)
	}

	want := ListLen(gap)
	for k, l := range entries {
		if len(l) != want {
			return nil, fmt.Errorf("index: list %q has %d entries, want %d", k, len(l), want)
		}
	}

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Index{
		gap:         gap,
		depth:       depth,
		entries:     entries.Clone(),
		categorical: slices.Clone(categorical),
		numeric:     slices.Clone(numeric),
		logger:      logger,
	}, nil
}

// QuantileGap returns the percentage step between boundaries.
func (x *Index) QuantileGap() int { return x.gap }

// MaxDepth returns the depth the index was built with.
func (x *Index) MaxDepth() int { return x.depth }

// Len returns the number of stored lists.
func (x *Index) Len() int { return len(x.entries) }

// CategoricalAttributes returns the filter attribute names.
func (x *Index) CategoricalAttributes() []string { return slices.Clone(x.categorical) }

// NumericAttributes returns the bucket attribute names.
func (x *Index) NumericAttributes() []string { return slices.Clone(x.numeric) }

// Entries returns a copy of the stored lists.
func (x *Index) Entries() Map { return x.entries.Clone() }

// List returns the list stored under an exact canonical key.
func (x *Index) List(key string) (QuantileList, bool) {
	l, ok := x.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(l), true
}

// Query holds per-call options of Get and Lookup.
type Query struct {
	Filters filter.Set
	Buckets []int
	Debug   bool
}

// QueryOption configures a query.
type QueryOption func(*Query)

// WithFilters restricts the query to records matching filters.
func WithFilters(filters filter.Set) QueryOption {
	return func(q *Query) {
		q.Filters = filters
	}
}

// WithBuckets sets the percentage split. Entries must sum to 100.
func WithBuckets(buckets ...int) QueryOption {
	return func(q *Query) {
		q.Buckets = buckets
	}
}

// WithDebug logs the resolution details of the query.
func WithDebug() QueryOption {
	return func(q *Query) {
		q.Debug = true
	}
}

// Result is the outcome of a Lookup.
type Result struct {
	Value      float64
	Key        string
	List       QuantileList
	Percentile int
	Position   int
}

// Get returns the boundary of bucket (1-based) for attribute. Below returns the
// upper boundary of the bucket and Above the lower one.
func (x *Index) Get(attribute string, bucket int, op Operator, opts ...QueryOption) (float64, error) {
	r, err := x.Lookup(attribute, bucket, op, opts...)
	if err != nil {
		return 0, err
	}
	return r.Value, nil
}

// Lookup is Get returning the resolved key, list, percentile and position alongside the value.
func (x *Index) Lookup(attribute string, bucket int, op Operator, opts ...QueryOption) (Result, error) {
	q := Query{Buckets: DefaultBuckets()}
	for _, fn := range opts {
		fn(&q)
	}

	if !slices.Contains(x.numeric, attribute) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	if bucket < 1 || bucket > len(q.Buckets) {
		return Result{}, fmt.Errorf("%w: %d not in [1, %d]", ErrBucketOutOfRange, bucket, len(q.Buckets))
	}
	if err := validateBuckets(q.Buckets); err != nil {
		return Result{}, err
	}
	if !op.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidOperator, op.String())
	}

	key, list, ok := x.resolve(attribute, q.Filters, make(map[string]struct{}))
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNoIndexForFilters, filter.CanonicalKey(attribute, q.Filters))
	}

	steps := bucket
	if op == Above {
		steps--
	}
	percentile := 0
	for _, b := range q.Buckets[:steps] {
		percentile += b
	}
	pos := percentile / x.gap

	r := Result{
		Value:      list[pos],
		Key:        key,
		List:       slices.Clone(list),
		Percentile: percentile,
		Position:   pos,
	}

	if q.Debug {
		x.logger.LogAttrs(context.Background(), slog.LevelDebug, "lookup",
			slog.String("attribute", attribute),
			slog.Int("bucket", bucket),
			slog.String("operator", op.String()),
			slog.String("key", key),
			slog.Any("list", r.List),
			slog.Int("percentile", percentile),
			slog.Int("position", pos),
			slog.Float64("value", r.Value),
		)
	}
	return r, nil
}

func validateBuckets(buckets []int) error {
	sum := 0
	for _, b := range buckets {
		if b < 0 {
			return fmt.Errorf("%w: negative entry %d", ErrInvalidBucketSpec, b)
		}
		if b > 100-sum {
			return fmt.Errorf("%w: %v exceeds 100", ErrInvalidBucketSpec, buckets)
		}
		sum += b
	}
	if sum != 100 {
		return fmt.Errorf("%w: %v sums to %d", ErrInvalidBucketSpec, buckets, sum)
	}
	return nil
}

// Resolve finds the stored list for attribute under filters. When the exact
// combination is missing, filters are dropped one at a time in insertion order,
// depth first, and the first stored subset wins.
func (x *Index) Resolve(attribute string, filters filter.Set) (string, QuantileList, bool) {
	key, l, ok := x.resolve(attribute, filters, make(map[string]struct{}))
	if !ok {
		return "", nil, false
	}
	return key, slices.Clone(l), true
}

func (x *Index) resolve(attribute string, filters filter.Set, failed map[string]struct{}) (string, QuantileList, bool) {
	key := filter.CanonicalKey(attribute, filters)
	if l, ok := x.entries[key]; ok {
		return key, l, true
	}
	if _, seen := failed[key]; seen {
		return "", nil, false
	}

	for _, k := range filters.Keys() {
		if key, l, ok := x.resolve(attribute, filters.Without(k), failed); ok {
			return key, l, true
		}
	}

	failed[key] = struct{}{}
	return "", nil, false
}
