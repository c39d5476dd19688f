// Package memory implements source.Catalog over an in-memory record list.
//
// Records are scanned once at construction. For every numeric attribute the
// records are ordered ascending by that attribute, and every (categorical
// attribute, value) pair gets a roaring bitmap of positions in that order. A
// filtered partition is the intersection of its pair bitmaps, so Count is a
// cardinality and ValueAt is a Select on the intersection.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/internal/cache"
	"github.com/hupe1980/qbucket/internal/conv"
	"github.com/hupe1980/qbucket/source"
)

// DefaultCacheSize is the default number of cached filtered views.
const DefaultCacheSize = 4096

// Record is a single item. Categorical values may be scalars or collections
// ([]any, []string); a collection matches a filter when it contains the value.
type Record map[string]any

// Options configures a Source.
type Options struct {
	// Predicate is an expr-lang boolean expression evaluated against each record.
	// Records for which it is false are ignored. Empty admits every record.
	Predicate string

	// CacheSize bounds the number of cached filtered views.
	CacheSize int
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		CacheSize: DefaultCacheSize,
	}
}

// WithPredicate admits only records matching the expression, e.g. "listPrice > 0".
func WithPredicate(expression string) func(*Options) {
	return func(o *Options) {
		o.Predicate = expression
	}
}

// WithCacheSize sets the number of cached filtered views.
func WithCacheSize(n int) func(*Options) {
	return func(o *Options) {
		o.CacheSize = n
	}
}

// Source is an in-memory source.Catalog. It is immutable after New and safe for
// concurrent use.
type Source struct {
	records     int
	categorical map[string][]string
	numeric     []string
	columns     map[string]*column
	views       *cache.LRU[string, *roaring.Bitmap]
}

type column struct {
	sorted   []float64
	all      *roaring.Bitmap
	postings map[string]map[string]*roaring.Bitmap
}

var _ source.Catalog = (*Source)(nil)

// New indexes records for the given categorical and numeric attributes.
//
// A record lacking a numeric attribute (or holding null) is left out of that
// attribute's partitions. A non-numeric value for a numeric attribute fails with
// source.ErrInvalidRecord.
func New(records []Record, categorical, numeric []string, optFns ...func(*Options)) (*Source, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	admitted, err := admit(records, opts.Predicate)
	if err != nil {
		return nil, err
	}

	s := &Source{
		records:     len(admitted),
		categorical: make(map[string][]string, len(categorical)),
		numeric:     slices.Clone(numeric),
		columns:     make(map[string]*column, len(numeric)),
		views:       cache.NewLRU[string, *roaring.Bitmap](opts.CacheSize),
	}

	for _, attr := range categorical {
		seen := make(map[string]struct{})
		for _, r := range admitted {
			for _, v := range categoricalValues(r[attr]) {
				seen[v] = struct{}{}
			}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		slices.Sort(values)
		s.categorical[attr] = values
	}

	for _, attr := range numeric {
		col, err := buildColumn(admitted, attr, categorical)
		if err != nil {
			return nil, err
		}
		s.columns[attr] = col
	}

	return s, nil
}

func admit(records []Record, predicate string) ([]Record, error) {
	if predicate == "" {
		return records, nil
	}

	program, err := expr.Compile(predicate, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("memory: compile predicate: %w", err)
	}

	var vmachine vm.VM
	out := make([]Record, 0, len(records))
	for i, r := range records {
		ok, err := vmachine.Run(program, map[string]any(r))
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: predicate: %v", source.ErrInvalidRecord, i, err)
		}
		if ok.(bool) {
			out = append(out, r)
		}
	}
	return out, nil
}

func buildColumn(records []Record, attr string, categorical []string) (*column, error) {
	type row struct {
		value  float64
		record int
	}

	rows := make([]row, 0, len(records))
	for i, r := range records {
		raw, ok := r[attr]
		if !ok || raw == nil {
			continue
		}
		f, ok := source.Float(raw)
		if !ok {
			return nil, fmt.Errorf("%w: record %d: attribute %q is not numeric (%T)", source.ErrInvalidRecord, i, attr, raw)
		}
		rows = append(rows, row{value: f, record: i})
	}

	if _, err := conv.IntToUint32(len(rows)); err != nil {
		return nil, fmt.Errorf("memory: attribute %q: %w", attr, err)
	}

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].value < rows[b].value })

	col := &column{
		sorted:   make([]float64, len(rows)),
		all:      roaring.New(),
		postings: make(map[string]map[string]*roaring.Bitmap, len(categorical)),
	}
	for _, c := range categorical {
		col.postings[c] = make(map[string]*roaring.Bitmap)
	}

	for pos, rw := range rows {
		col.sorted[pos] = rw.value
		col.all.Add(uint32(pos))

		r := records[rw.record]
		for _, c := range categorical {
			for _, v := range categoricalValues(r[c]) {
				bm, ok := col.postings[c][v]
				if !ok {
					bm = roaring.New()
					col.postings[c][v] = bm
				}
				bm.Add(uint32(pos))
			}
		}
	}

	col.all.RunOptimize()
	for _, byValue := range col.postings {
		for _, bm := range byValue {
			bm.RunOptimize()
		}
	}
	return col, nil
}

func categoricalValues(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if e != nil {
				out = append(out, source.Stringify(e))
			}
		}
		return out
	case []string:
		return x
	default:
		return []string{source.Stringify(x)}
	}
}

// Len returns the number of admitted records.
func (s *Source) Len() int { return s.records }

// Count implements source.Source.
func (s *Source) Count(_ context.Context, attribute string, filters filter.Set) (int, error) {
	view, err := s.view(attribute, filters)
	if err != nil {
		return 0, err
	}
	return conv.Uint64ToInt(view.GetCardinality())
}

// ValueAt implements source.Source.
func (s *Source) ValueAt(_ context.Context, attribute string, rank int, filters filter.Set) (float64, error) {
	view, err := s.view(attribute, filters)
	if err != nil {
		return 0, err
	}
	r, err := conv.IntToUint32(rank)
	if err != nil || uint64(r) >= view.GetCardinality() {
		return 0, fmt.Errorf("%w: rank %d of %d for %s", source.ErrRankOutOfRange, rank, view.GetCardinality(), filter.CanonicalKey(attribute, filters))
	}
	pos, err := view.Select(r)
	if err != nil {
		return 0, &source.Error{Op: "select", Attribute: attribute, Err: err}
	}
	return s.columns[attribute].sorted[pos], nil
}

// CategoricalAttributes implements source.Discovery.
func (s *Source) CategoricalAttributes(context.Context) (map[string][]string, error) {
	out := make(map[string][]string, len(s.categorical))
	for k, v := range s.categorical {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

// NumericAttributes implements source.Discovery.
func (s *Source) NumericAttributes(context.Context) ([]string, error) {
	return slices.Clone(s.numeric), nil
}

// CacheStats returns hit/miss counters of the filtered view cache.
func (s *Source) CacheStats() (hits, misses int64) {
	return s.views.Stats()
}

func (s *Source) view(attribute string, filters filter.Set) (*roaring.Bitmap, error) {
	col, ok := s.columns[attribute]
	if !ok {
		return nil, fmt.Errorf("%w: numeric attribute %q", source.ErrUnknownAttribute, attribute)
	}
	if filters.IsEmpty() {
		return col.all, nil
	}

	return s.views.GetOrCompute(filter.CanonicalKey(attribute, filters), func() (*roaring.Bitmap, error) {
		bitmaps := make([]*roaring.Bitmap, 0, filters.Len())
		for _, p := range filters.Pairs() {
			byValue, ok := col.postings[p.Key]
			if !ok {
				return nil, fmt.Errorf("%w: categorical attribute %q", source.ErrUnknownAttribute, p.Key)
			}
			bm, ok := byValue[p.Value]
			if !ok {
				return roaring.New(), nil
			}
			bitmaps = append(bitmaps, bm)
		}
		return roaring.FastAnd(bitmaps...), nil
	})
}
