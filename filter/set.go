// Package filter provides categorical filter sets and the canonical key scheme
// used to address precomputed quantile lists.
//
// A Set is an immutable, insertion-ordered collection of (key, value) pairs with
// at most one value per key. With and Without return new sets, so a Set can be
// shared freely between goroutines and recursion frames.
package filter

import (
	"fmt"
	"slices"
	"strings"
)

// Pair is a single categorical equality constraint.
type Pair struct {
	Key   string
	Value string
}

// String returns the pair in key=value form.
func (p Pair) String() string {
	return p.Key + "=" + p.Value
}

// Set is an immutable, insertion-ordered filter set.
// The zero value is the empty set.
type Set struct {
	pairs []Pair
}

// New creates a set from the given pairs, preserving their order.
// A later pair with an already present key replaces the earlier value in place.
func New(pairs ...Pair) Set {
	var s Set
	for _, p := range pairs {
		s = s.With(p.Key, p.Value)
	}
	return s
}

// FromMap creates a set from a map. Map iteration order is random, so pairs are
// ordered by key to keep the result deterministic.
func FromMap(m map[string]string) Set {
	if len(m) == 0 {
		return Set{}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: k, Value: m[k]})
	}
	return Set{pairs: pairs}
}

// Parse parses "key=value" expressions, preserving their order.
func Parse(exprs ...string) (Set, error) {
	var s Set
	for _, e := range exprs {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return Set{}, fmt.Errorf("filter: invalid expression %q (want key=value)", e)
		}
		s = s.With(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	return s, nil
}

// Len returns the number of pairs.
func (s Set) Len() int { return len(s.pairs) }

// IsEmpty reports whether the set has no pairs.
func (s Set) IsEmpty() bool { return len(s.pairs) == 0 }

// Has reports whether key is constrained by the set.
func (s Set) Has(key string) bool {
	return s.index(key) >= 0
}

// Get returns the value bound to key.
func (s Set) Get(key string) (string, bool) {
	if i := s.index(key); i >= 0 {
		return s.pairs[i].Value, true
	}
	return "", false
}

// Pairs returns a copy of the pairs in insertion order.
func (s Set) Pairs() []Pair {
	return slices.Clone(s.pairs)
}

// Keys returns the constrained keys in insertion order.
func (s Set) Keys() []string {
	keys := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		keys[i] = p.Key
	}
	return keys
}

// With returns a new set with key bound to value. An existing binding keeps its
// position and gets the new value; a new key is appended.
func (s Set) With(key, value string) Set {
	if i := s.index(key); i >= 0 {
		pairs := slices.Clone(s.pairs)
		pairs[i].Value = value
		return Set{pairs: pairs}
	}
	pairs := make([]Pair, len(s.pairs), len(s.pairs)+1)
	copy(pairs, s.pairs)
	return Set{pairs: append(pairs, Pair{Key: key, Value: value})}
}

// Without returns a new set without key. The receiver is returned unchanged if
// key is not present.
func (s Set) Without(key string) Set {
	i := s.index(key)
	if i < 0 {
		return s
	}
	pairs := make([]Pair, 0, len(s.pairs)-1)
	pairs = append(pairs, s.pairs[:i]...)
	pairs = append(pairs, s.pairs[i+1:]...)
	return Set{pairs: pairs}
}

// Map returns the set as a plain map.
func (s Set) Map() map[string]string {
	m := make(map[string]string, len(s.pairs))
	for _, p := range s.pairs {
		m[p.Key] = p.Value
	}
	return m
}

// String returns the pairs joined by commas in insertion order.
func (s Set) String() string {
	parts := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		parts[i] = p.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (s Set) index(key string) int {
	for i, p := range s.pairs {
		if p.Key == key {
			return i
		}
	}
	return -1
}
