package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
)

func TestFutureResolvesOnce(t *testing.T) {
	f, complete := NewFuture()
	require.False(t, f.IsDone())
	require.NoError(t, f.Err())

	first := errors.New("first")
	require.True(t, complete(first))
	require.False(t, complete(nil))
	require.False(t, complete(errors.New("second")))

	require.True(t, f.IsDone())
	require.ErrorIs(t, f.Wait(context.Background()), first)
}

func TestFutureConcurrentCompletion(t *testing.T) {
	_, complete := NewFuture()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if complete(nil) {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, won)
}

func TestFutureWaitHonorsContext(t *testing.T) {
	f, _ := NewFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, f.Wait(ctx), context.DeadlineExceeded)
	require.False(t, f.IsDone())
}

func TestFutureOnComplete(t *testing.T) {
	f, complete := NewFuture()
	cause := errors.New("boom")

	var calls []error
	f.OnComplete(func(err error) { calls = append(calls, err) })
	require.Empty(t, calls)

	complete(cause)
	require.Len(t, calls, 1)
	require.ErrorIs(t, calls[0], cause)

	// registered after resolution, runs immediately
	f.OnComplete(func(err error) { calls = append(calls, err) })
	require.Len(t, calls, 2)
	require.ErrorIs(t, calls[1], cause)
}
