package testutil

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/source"
	"github.com/hupe1980/qbucket/source/memory"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Schema describes generated records.
type Schema struct {
	// Categorical maps attribute names to the values drawn for them.
	Categorical map[string][]string
	// Numeric lists numeric attribute names with their exclusive upper bound.
	Numeric map[string]float64
}

// DefaultSchema returns a small schema with three categorical and two numeric attributes.
func DefaultSchema() Schema {
	return Schema{
		Categorical: map[string][]string{
			"brand":   {"acme", "globex", "initech"},
			"color":   {"red", "green", "blue", "black"},
			"channel": {"web", "store"},
		},
		Numeric: map[string]float64{
			"price":  1000,
			"rating": 5,
		},
	}
}

// CategoricalNames returns the sorted categorical attribute names.
func (s Schema) CategoricalNames() []string {
	names := make([]string, 0, len(s.Categorical))
	for k := range s.Categorical {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// NumericNames returns the sorted numeric attribute names.
func (s Schema) NumericNames() []string {
	names := make([]string, 0, len(s.Numeric))
	for k := range s.Numeric {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Records generates n records following schema. Numeric values are rounded to
// two decimals so duplicates occur.
func (r *RNG) Records(n int, schema Schema) []memory.Record {
	cats := schema.CategoricalNames()
	nums := schema.NumericNames()

	out := make([]memory.Record, n)
	for i := range out {
		rec := make(memory.Record, len(cats)+len(nums))
		for _, c := range cats {
			values := schema.Categorical[c]
			rec[c] = values[r.Intn(len(values))]
		}
		for _, a := range nums {
			v := r.Float64() * schema.Numeric[a]
			rec[a] = float64(int(v*100)) / 100
		}
		out[i] = rec
	}
	return out
}

// ExactBoundary scans records and returns the value of attribute at percentile
// among the records matching filters, using the same rank rule as the indexer.
// ok is false when no record matches.
func ExactBoundary(records []memory.Record, attribute string, filters filter.Set, percentile int) (float64, bool) {
	var values []float64
	for _, rec := range records {
		if !matches(rec, filters) {
			continue
		}
		raw, ok := rec[attribute]
		if !ok || raw == nil {
			continue
		}
		f, ok := source.Float(raw)
		if !ok {
			panic(fmt.Sprintf("testutil: attribute %q is not numeric", attribute))
		}
		values = append(values, f)
	}
	if len(values) == 0 {
		return 0, false
	}
	slices.Sort(values)

	total := len(values)
	rank := min(percentile*total/100, total-1)
	return values[rank], true
}

func matches(rec memory.Record, filters filter.Set) bool {
	for _, p := range filters.Pairs() {
		switch v := rec[p.Key].(type) {
		case []any:
			found := false
			for _, e := range v {
				if source.Stringify(e) == p.Value {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case []string:
			if !slices.Contains(v, p.Value) {
				return false
			}
		default:
			if v == nil || source.Stringify(v) != p.Value {
				return false
			}
		}
	}
	return true
}
