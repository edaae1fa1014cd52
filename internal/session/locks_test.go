package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocksSerializeSameKey(t *testing.T) {
	locks := NewLocks(5 * time.Second)
	var inside, maxInside int32
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locks.WithLock(context.Background(), "acct", func() error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				counter++
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, locks.size())
}

func TestLocksIndependentKeys(t *testing.T) {
	locks := NewLocks(time.Second)
	releaseA, err := locks.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release, err := locks.Acquire(context.Background(), "b")
		assert.NoError(t, err)
		release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestLocksTimeout(t *testing.T) {
	locks := NewLocks(20 * time.Millisecond)
	release, err := locks.Acquire(context.Background(), "acct")
	require.NoError(t, err)

	_, err = locks.Acquire(context.Background(), "acct")
	assert.ErrorIs(t, err, ErrTimeout)

	release()
	release()
	again, err := locks.Acquire(context.Background(), "acct")
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, locks.size())
}

func TestLocksContextCancel(t *testing.T) {
	locks := NewLocks(time.Minute)
	release, err := locks.Acquire(context.Background(), "acct")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.Acquire(ctx, "acct")
	assert.ErrorIs(t, err, context.Canceled)
}
