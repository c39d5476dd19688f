package source

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qbucket/filter"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Count(ctx context.Context, attribute string, filters filter.Set) (int, error) {
	args := m.Called(ctx, attribute, filters)
	return args.Int(0), args.Error(1)
}

func (m *mockSource) ValueAt(ctx context.Context, attribute string, rank int, filters filter.Set) (float64, error) {
	args := m.Called(ctx, attribute, rank, filters)
	return args.Get(0).(float64), args.Error(1)
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"Shoes", "Shoes"},
		{true, "true"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint16(9), "9"},
		{3.0, "3"},
		{2.5, "2.5"},
		{float32(1.5), "1.5"},
		{json.Number("12"), "12"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stringify(tt.in))
	}
}

func TestFloat(t *testing.T) {
	f, ok := Float(12)
	require.True(t, ok)
	assert.Equal(t, 12.0, f)

	f, ok = Float(json.Number("2.25"))
	require.True(t, ok)
	assert.Equal(t, 2.25, f)

	_, ok = Float("12")
	assert.False(t, ok)

	_, ok = Float(math.NaN())
	assert.False(t, ok)
}

func TestError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Op: "count", Attribute: "price", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `source count "price": connection reset`, err.Error())

	err = &Error{Op: "discover", Err: cause}
	assert.Equal(t, "source discover: connection reset", err.Error())
}

func TestThrottle(t *testing.T) {
	ctx := context.Background()
	m := new(mockSource)
	fs := filter.New(filter.Pair{Key: "category", Value: "Shoes"})

	m.On("Count", mock.Anything, "price", fs).Return(3, nil).Once()
	m.On("ValueAt", mock.Anything, "price", 1, fs).Return(6.0, nil).Once()

	src := Throttle(m, 1000, 10)
	_, isThrottled := src.(*Throttled)
	require.True(t, isThrottled)

	n, err := src.Count(ctx, "price", fs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, err := src.ValueAt(ctx, "price", 1, fs)
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)

	m.AssertExpectations(t)
}

func TestThrottle_Disabled(t *testing.T) {
	m := new(mockSource)
	assert.Same(t, Source(m), Throttle(m, 0, 0))
}

func TestThrottle_CanceledContext(t *testing.T) {
	m := new(mockSource)
	src := Throttle(m, 0.001, 1)

	ctx, cancel := context.WithCancel(context.Background())
	// Drain the single burst token, then the next call must wait.
	m.On("Count", mock.Anything, "price", filter.Set{}).Return(1, nil).Once()
	_, err := src.Count(ctx, "price", filter.Set{})
	require.NoError(t, err)

	cancel()
	_, err = src.Count(ctx, "price", filter.Set{})
	assert.Error(t, err)
	m.AssertExpectations(t)
}
