package index

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qbucket/filter"
)

func TestDocument_RoundTrip(t *testing.T) {
	x := newTestIndex(t)

	data, err := json.Marshal(x.Document())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))

	y, err := FromDocument(doc)
	require.NoError(t, err)

	filterSets := []filter.Set{
		{},
		filter.New(filter.Pair{Key: "color", Value: "red"}),
		filter.New(filter.Pair{Key: "size", Value: "M"}, filter.Pair{Key: "color", Value: "red"}),
	}
	for _, fs := range filterSets {
		for b := 1; b <= 4; b++ {
			for _, op := range []Operator{Above, Below} {
				want, err := x.Get("price", b, op, WithFilters(fs))
				require.NoError(t, err)
				got, err := y.Get("price", b, op, WithFilters(fs))
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}
	}
	assert.Equal(t, x.Document(), y.Document())
}

func TestDocument_RoundTripSeparatorValues(t *testing.T) {
	boots := filter.New(filter.Pair{Key: "category", Value: "Shoes & Boots"})
	odd := filter.New(filter.Pair{Key: "category", Value: "a_=b#c"})
	x, err := New(25, 2, Map{
		"price#":                            {1, 2, 3, 4, 5},
		filter.CanonicalKey("price", boots): {10, 20, 30, 40, 50},
		filter.CanonicalKey("price", odd):   {6, 7, 8, 9, 10},
	}, []string{"category"}, []string{"price"})
	require.NoError(t, err)

	data, err := json.Marshal(x.Document())
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))

	y, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, x.Document(), y.Document())

	v, err := y.Get("price", 1, Above, WithFilters(boots))
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	v, err = y.Get("price", 4, Below, WithFilters(odd))
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
}

func TestDocument_FieldNames(t *testing.T) {
	data, err := json.Marshal(newTestIndex(t).Document())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, k := range []string{"quantile_gap", "max_depth", "indexer_hash", "filter_features", "bucket_features"} {
		assert.Contains(t, raw, k)
	}
}

func TestFromDocument_Malformed(t *testing.T) {
	valid := func() Document { return newTestIndex(t).Document() }

	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"gap", func(d *Document) { d.QuantileGap = 7 }},
		{"depth", func(d *Document) { d.MaxDepth = 0 }},
		{"no numeric", func(d *Document) { d.Numeric = nil }},
		{"list length", func(d *Document) { d.Entries["price#"] = []float64{1} }},
		{"bad key", func(d *Document) { d.Entries["price"] = []float64{1, 2, 3, 4, 5} }},
		{"unknown attribute", func(d *Document) { d.Entries["height#"] = []float64{1, 2, 3, 4, 5} }},
		{"unknown filter", func(d *Document) { d.Entries["price#shape_=round"] = []float64{1, 2, 3, 4, 5} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(&doc)
			_, err := FromDocument(doc)
			assert.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}
