package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_WithWithout(t *testing.T) {
	var empty Set
	assert.True(t, empty.IsEmpty())

	s1 := empty.With("company", "NIKE")
	s2 := s1.With("category", "Shoes")

	// Earlier sets are unchanged.
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 1, s1.Len())
	assert.Equal(t, 2, s2.Len())
	assert.Equal(t, []string{"company", "category"}, s2.Keys())

	v, ok := s2.Get("category")
	require.True(t, ok)
	assert.Equal(t, "Shoes", v)

	s3 := s2.Without("company")
	assert.Equal(t, []string{"category"}, s3.Keys())
	assert.True(t, s2.Has("company"))

	same := s3.Without("missing")
	assert.Equal(t, s3, same)
}

func TestSet_WithReplacesInPlace(t *testing.T) {
	s := New(Pair{"a", "1"}, Pair{"b", "2"})
	s2 := s.With("a", "3")

	assert.Equal(t, []Pair{{"a", "3"}, {"b", "2"}}, s2.Pairs())
	assert.Equal(t, []Pair{{"a", "1"}, {"b", "2"}}, s.Pairs())
}

func TestSet_BranchesDoNotAlias(t *testing.T) {
	base := New(Pair{"a", "1"})
	left := base.With("b", "x")
	right := base.With("b", "y")

	lv, _ := left.Get("b")
	rv, _ := right.Get("b")
	assert.Equal(t, "x", lv)
	assert.Equal(t, "y", rv)
	assert.Equal(t, 1, base.Len())
}

func TestFromMap_SortedByKey(t *testing.T) {
	s := FromMap(map[string]string{"z": "1", "a": "2", "m": "3"})
	assert.Equal(t, []string{"a", "m", "z"}, s.Keys())
	assert.Equal(t, map[string]string{"z": "1", "a": "2", "m": "3"}, s.Map())
	assert.True(t, FromMap(nil).IsEmpty())
}

func TestParse(t *testing.T) {
	s, err := Parse("category=Shoes", " company = NIKE ")
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"category", "Shoes"}, {"company", "NIKE"}}, s.Pairs())
	assert.Equal(t, "{category=Shoes, company=NIKE}", s.String())

	_, err = Parse("novalue")
	assert.Error(t, err)

	_, err = Parse("=x")
	assert.Error(t, err)
}
