package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/source"
	"github.com/hupe1980/qbucket/source/memory"
	"github.com/hupe1980/qbucket/testutil"
)

func newProducts(t *testing.T, opts ...func(*memory.Options)) *memory.Source {
	t.Helper()
	src, err := memory.New(testutil.ProductRecords(), []string{"company", "category"}, []string{"listPrice"}, opts...)
	require.NoError(t, err)
	return src
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	src := newProducts(t)

	tests := []struct {
		name    string
		filters filter.Set
		want    int
	}{
		{"unfiltered", filter.Set{}, 9},
		{"category", filter.New(filter.Pair{Key: "category", Value: "Shoes"}), 6},
		{"company", filter.New(filter.Pair{Key: "company", Value: "NIKE"}), 4},
		{"both", filter.New(
			filter.Pair{Key: "company", Value: "PUMA"},
			filter.Pair{Key: "category", Value: "Shoes"},
		), 2},
		{"empty intersection", filter.New(
			filter.Pair{Key: "company", Value: "ADIDAS"},
			filter.Pair{Key: "category", Value: "Clothes"},
		), 0},
		{"unknown value", filter.New(filter.Pair{Key: "category", Value: "Hats"}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := src.Count(ctx, "listPrice", tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestValueAt(t *testing.T) {
	ctx := context.Background()
	src := newProducts(t)

	v, err := src.ValueAt(ctx, "listPrice", 0, filter.Set{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = src.ValueAt(ctx, "listPrice", 8, filter.Set{})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, v)

	nike := filter.New(filter.Pair{Key: "company", Value: "NIKE"})
	var got []float64
	for rank := range 4 {
		v, err := src.ValueAt(ctx, "listPrice", rank, nike)
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []float64{3, 6, 100, 300}, got)
}

func TestValueAt_OutOfRange(t *testing.T) {
	ctx := context.Background()
	src := newProducts(t)

	_, err := src.ValueAt(ctx, "listPrice", 9, filter.Set{})
	assert.ErrorIs(t, err, source.ErrRankOutOfRange)

	_, err = src.ValueAt(ctx, "listPrice", -1, filter.Set{})
	assert.ErrorIs(t, err, source.ErrRankOutOfRange)

	hats := filter.New(filter.Pair{Key: "category", Value: "Hats"})
	_, err = src.ValueAt(ctx, "listPrice", 0, hats)
	assert.ErrorIs(t, err, source.ErrRankOutOfRange)
}

func TestUnknownAttribute(t *testing.T) {
	ctx := context.Background()
	src := newProducts(t)

	_, err := src.Count(ctx, "weight", filter.Set{})
	assert.ErrorIs(t, err, source.ErrUnknownAttribute)

	_, err = src.Count(ctx, "listPrice", filter.New(filter.Pair{Key: "color", Value: "red"}))
	assert.ErrorIs(t, err, source.ErrUnknownAttribute)
}

func TestDiscovery(t *testing.T) {
	ctx := context.Background()
	src := newProducts(t)

	cats, err := src.CategoricalAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADIDAS", "NIKE", "PUMA"}, cats["company"])
	assert.Equal(t, []string{"Bracelets", "Clothes", "Shoes"}, cats["category"])

	// Returned maps are copies.
	cats["company"][0] = "changed"
	again, err := src.CategoricalAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ADIDAS", again["company"][0])

	nums, err := src.NumericAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"listPrice"}, nums)
	assert.Equal(t, 9, src.Len())
}

func TestCollections(t *testing.T) {
	ctx := context.Background()
	src, err := memory.New(testutil.TaggedRecords(), []string{"tags", "size"}, []string{"price"})
	require.NoError(t, err)

	cats, err := src.CategoricalAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"clearance", "new", "sale"}, cats["tags"])

	sale := filter.New(filter.Pair{Key: "tags", Value: "sale"})
	n, err := src.Count(ctx, "price", sale)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, err := src.ValueAt(ctx, "price", 1, sale.With("size", "small"))
	require.NoError(t, err)
	assert.Equal(t, 30.0, v)
}

func TestMissingNumericValue(t *testing.T) {
	ctx := context.Background()
	records := []memory.Record{
		{"kind": "a", "price": 1},
		{"kind": "a"},
		{"kind": "b", "price": nil},
		{"kind": "b", "price": 4},
	}
	src, err := memory.New(records, []string{"kind"}, []string{"price"})
	require.NoError(t, err)

	n, err := src.Count(ctx, "price", filter.Set{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cats, err := src.CategoricalAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cats["kind"])
}

func TestInvalidRecord(t *testing.T) {
	records := []memory.Record{{"price": "cheap"}}
	_, err := memory.New(records, nil, []string{"price"})
	assert.ErrorIs(t, err, source.ErrInvalidRecord)
}

func TestPredicate(t *testing.T) {
	ctx := context.Background()
	src := newProducts(t, memory.WithPredicate(`company != "ADIDAS" && listPrice >= 10`))

	assert.Equal(t, 5, src.Len())

	v, err := src.ValueAt(ctx, "listPrice", 4, filter.Set{})
	require.NoError(t, err)
	assert.Equal(t, 300.0, v)

	cats, err := src.CategoricalAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"NIKE", "PUMA"}, cats["company"])
}

func TestPredicate_Invalid(t *testing.T) {
	_, err := memory.New(testutil.ProductRecords(), nil, []string{"listPrice"}, memory.WithPredicate("listPrice >"))
	assert.Error(t, err)
}

func TestViewCache(t *testing.T) {
	ctx := context.Background()
	src := newProducts(t, memory.WithCacheSize(8))
	shoes := filter.New(filter.Pair{Key: "category", Value: "Shoes"})

	_, err := src.Count(ctx, "listPrice", shoes)
	require.NoError(t, err)
	_, err = src.ValueAt(ctx, "listPrice", 0, shoes)
	require.NoError(t, err)

	hits, misses := src.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestAgainstExactBoundary(t *testing.T) {
	ctx := context.Background()
	schema := testutil.DefaultSchema()
	records := testutil.NewRNG(7).Records(300, schema)

	src, err := memory.New(records, schema.CategoricalNames(), schema.NumericNames())
	require.NoError(t, err)

	fs := filter.New(
		filter.Pair{Key: "color", Value: "red"},
		filter.Pair{Key: "channel", Value: "web"},
	)
	n, err := src.Count(ctx, "price", fs)
	require.NoError(t, err)
	require.Positive(t, n)

	for _, p := range []int{0, 10, 50, 90, 100} {
		want, ok := testutil.ExactBoundary(records, "price", fs, p)
		require.True(t, ok)

		got, err := src.ValueAt(ctx, "price", min(p*n/100, n-1), fs)
		require.NoError(t, err)
		assert.Equal(t, want, got, "percentile %d", p)
	}
}
