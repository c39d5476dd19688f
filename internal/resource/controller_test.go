package resource

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Queries(t *testing.T) {
	c := NewController(Config{MaxInflight: 2})

	require.True(t, c.TryAcquireQuery())
	require.True(t, c.TryAcquireQuery())
	assert.Equal(t, int64(2), c.Inflight())

	// Limit reached.
	assert.False(t, c.TryAcquireQuery())
	assert.Equal(t, int64(2), c.Inflight())

	c.ReleaseQuery()
	assert.True(t, c.TryAcquireQuery())

	c.ReleaseQuery()
	c.ReleaseQuery()
	assert.Equal(t, int64(0), c.Inflight())
	assert.Equal(t, int64(2), c.MaxInflight())
}

func TestController_UnlimitedQueries(t *testing.T) {
	c := NewController(Config{})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, c.TryAcquireQuery())
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), c.Inflight())
	assert.Equal(t, int64(0), c.MaxInflight())
}

func TestController_Reloads(t *testing.T) {
	c := NewController(Config{})

	require.True(t, c.TryAcquireReload())
	assert.False(t, c.TryAcquireReload())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.AcquireReload(ctx), context.Canceled)

	c.ReleaseReload()
	require.NoError(t, c.AcquireReload(context.Background()))
	c.ReleaseReload()
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	assert.True(t, c.TryAcquireQuery())
	c.ReleaseQuery()
	assert.Equal(t, int64(0), c.Inflight())
	assert.True(t, c.TryAcquireReload())
	require.NoError(t, c.AcquireReload(context.Background()))
	c.ReleaseReload()
}
