package filter

import (
	"slices"
	"strings"
)

const (
	attributeSep = "#"
	pairSep      = "&"
	valueSep     = "_="
)

// CanonicalKey returns the order-invariant key of (attribute, set):
//
//	attribute + "#" + join(sort(["key_=value", ...]), "&")
//
// Two sets holding the same pairs produce the same key regardless of insertion
// order. Names containing '#', '&' or "_=" are a caller error.
func CanonicalKey(attribute string, s Set) string {
	if len(s.pairs) == 0 {
		return attribute + attributeSep
	}

	tokens := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		tokens[i] = p.Key + valueSep + p.Value
	}
	slices.Sort(tokens)

	var b strings.Builder
	b.Grow(len(attribute) + len(attributeSep) + 16*len(tokens))
	b.WriteString(attribute)
	b.WriteString(attributeSep)
	b.WriteString(strings.Join(tokens, pairSep))
	return b.String()
}

// SplitAttribute splits a canonical key at the attribute separator without
// parsing the pair tokens. It is exact for any value, since attribute names
// cannot contain '#'.
func SplitAttribute(key string) (attribute, pairs string, ok bool) {
	return strings.Cut(key, attributeSep)
}

// TokenPrefix returns the prefix of the pair token for filter key k.
func TokenPrefix(k string) string {
	return k + valueSep
}

// SplitKey splits a canonical key back into its attribute and set. Pairs come
// back in canonical (sorted) order. Values containing '&' or "_=" do not split
// back exactly; use SplitAttribute when only the attribute is needed.
func SplitKey(key string) (string, Set, bool) {
	attribute, rest, ok := strings.Cut(key, attributeSep)
	if !ok {
		return "", Set{}, false
	}
	if rest == "" {
		return attribute, Set{}, true
	}

	var s Set
	for _, token := range strings.Split(rest, pairSep) {
		k, v, ok := strings.Cut(token, valueSep)
		if !ok {
			return "", Set{}, false
		}
		s = s.With(k, v)
	}
	return attribute, s, true
}
