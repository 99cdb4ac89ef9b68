package warehouse

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermitPoolCeiling(t *testing.T) {
	pool := NewPermitPool(3)
	assert.Equal(t, 3, pool.Capacity())

	for i := 0; i < 3; i++ {
		require.True(t, pool.TryAcquire())
	}
	assert.Equal(t, 3, pool.InFlight())
	assert.False(t, pool.TryAcquire())

	pool.Release()
	assert.Equal(t, 2, pool.InFlight())
	assert.True(t, pool.TryAcquire())
}

func TestPermitPoolAcquireBlocksUntilRelease(t *testing.T) {
	pool := NewPermitPool(1)
	require.NoError(t, pool.Acquire(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	acquired := make(chan struct{})
	go func() {
		defer wg.Done()
		_ = pool.Acquire(context.Background())
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("acquire should block while the pool is full")
	case <-time.After(20 * time.Millisecond):
	}

	pool.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("acquire should proceed after release")
	}
	wg.Wait()
}

func TestPermitPoolAcquireHonoursContext(t *testing.T) {
	pool := NewPermitPool(1)
	require.NoError(t, pool.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPermitPoolMinimumSize(t *testing.T) {
	pool := NewPermitPool(0)
	assert.Equal(t, 1, pool.Capacity())
}
