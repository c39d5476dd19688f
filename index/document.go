package index

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/qbucket/filter"
)

// Document is the persisted form of an Index.
type Document struct {
	QuantileGap int                  `json:"quantile_gap"`
	MaxDepth    int                  `json:"max_depth"`
	Entries     map[string][]float64 `json:"indexer_hash"`
	Categorical []string             `json:"filter_features"`
	Numeric     []string             `json:"bucket_features"`
}

// Document returns a snapshot of the index.
func (x *Index) Document() Document {
	entries := make(map[string][]float64, len(x.entries))
	for k, v := range x.entries {
		entries[k] = slices.Clone(v)
	}
	return Document{
		QuantileGap: x.gap,
		MaxDepth:    x.depth,
		Entries:     entries,
		Categorical: slices.Clone(x.categorical),
		Numeric:     slices.Clone(x.numeric),
	}
}

// FromDocument reconstructs an index. Every validation failure wraps ErrMalformedDocument.
func FromDocument(doc Document, optFns ...func(*Options)) (*Index, error) {
	if err := ValidateGap(doc.QuantileGap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if len(doc.Numeric) == 0 {
		return nil, fmt.Errorf("%w: no bucket features", ErrMalformedDocument)
	}

	entries := make(Map, len(doc.Entries))
	for k, v := range doc.Entries {
		attr, pairs, ok := filter.SplitAttribute(k)
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrMalformedDocument, k)
		}
		if !slices.Contains(doc.Numeric, attr) {
			return nil, fmt.Errorf("%w: key %q names unknown bucket feature", ErrMalformedDocument, k)
		}
		// Observed values may contain separators, so only the leading token's
		// filter feature is checked.
		if pairs != "" && !slices.ContainsFunc(doc.Categorical, func(c string) bool {
			return strings.HasPrefix(pairs, filter.TokenPrefix(c))
		}) {
			return nil, fmt.Errorf("%w: key %q names unknown filter feature", ErrMalformedDocument, k)
		}
		entries[k] = v
	}

	x, err := New(doc.QuantileGap, doc.MaxDepth, entries, doc.Categorical, doc.Numeric, optFns...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return x, nil
}
