package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(ctx, "sku:A|wh:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, m.Len())
}

func TestKeyedMutexDistinctKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	releaseA, err := m.Acquire(ctx, "a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	releaseB, err := m.Acquire(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestKeyedMutexAcquireHonoursContext(t *testing.T) {
	m := NewKeyedMutex()
	release, err := m.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(ctx, "other", "k")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// "other" was taken first and must have been given back
	r, err := m.TryAcquire(context.Background(), "other")
	require.NoError(t, err)
	r()
}

func TestKeyedMutexOverlappingSetsDoNotDeadlock(t *testing.T) {
	m := NewKeyedMutex()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r, err := m.Acquire(ctx, "x", "y")
			if assert.NoError(t, err) {
				r()
			}
		}()
		go func() {
			defer wg.Done()
			r, err := m.Acquire(ctx, "y", "x")
			if assert.NoError(t, err) {
				r()
			}
		}()
	}
	wg.Wait()
}

func TestKeyedMutexTryAcquire(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	release, err := m.TryAcquire(ctx, "order:1")
	require.NoError(t, err)

	_, err = m.TryAcquire(ctx, "order:1")
	assert.ErrorIs(t, err, ErrNotObtained)

	release()
	release()

	again, err := m.TryAcquire(ctx, "order:1")
	require.NoError(t, err)
	again()
	assert.Zero(t, m.Len())
}
