package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
)

func TestDispatcherSendsPayload(t *testing.T) {
	connector := &flakyConnector{}
	d, p := newTestDispatcher(t, connector, 2)

	require.NoError(t, d.send([]byte("put cpu 1 1\n")).Wait(context.Background()))
	require.Eventually(t, func() bool {
		return string(connector.bytesReceived()) == "put cpu 1 1\n"
	}, time.Second, time.Millisecond)

	require.Equal(t, int64(1), p.acquired.Load())
	require.Equal(t, int64(1), p.released.Load())
	require.Equal(t, 1, p.Stats().Idle)
}

func TestDispatcherReleasesExactlyOnce(t *testing.T) {
	connector := &flakyConnector{}
	d, p := newTestDispatcher(t, connector, 3)

	const sends = 50
	var wg sync.WaitGroup
	for i := 0; i < sends; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.send([]byte("put m 1 1\n")).Wait(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(sends), p.acquired.Load())
	require.Equal(t, int64(sends), p.released.Load())
	stats := p.Stats()
	require.Equal(t, 0, stats.Leased)
	require.LessOrEqual(t, stats.Created, int64(3))
}

func TestDispatcherReleasesBrokenConnection(t *testing.T) {
	connector := &flakyConnector{}
	d, p := newTestDispatcher(t, connector, 1)

	// warm up one connection and break it from the outside
	require.NoError(t, d.send([]byte("put m 1 1\n")).Wait(context.Background()))
	c, err := p.Pool.Acquire(context.Background())
	require.NoError(t, err)
	c.MarkBroken()
	require.NoError(t, p.Pool.Release(c))

	require.NoError(t, d.send([]byte("put m 2 2\n")).Wait(context.Background()))
	stats := p.Stats()
	require.Equal(t, int64(1), stats.Discarded)
	require.Equal(t, int64(2), stats.Created)
	require.Equal(t, p.acquired.Load(), p.released.Load())
}

func TestDispatcherAcquireFailure(t *testing.T) {
	d, p := newTestDispatcher(t, &flakyConnector{failures: -1}, 1)

	err := d.send([]byte("put m 1 1\n")).Wait(context.Background())
	var ae *common.AcquireError
	require.True(t, errors.As(err, &ae))
	require.ErrorIs(t, err, errDial)

	// nothing was leased, nothing is released
	require.Equal(t, int64(0), p.released.Load())
}

func TestDispatcherOnClosedPool(t *testing.T) {
	d, p := newTestDispatcher(t, &flakyConnector{}, 1)
	require.NoError(t, p.Close())

	err := d.send([]byte("put m 1 1\n")).Wait(context.Background())
	require.ErrorIs(t, err, common.ErrPoolClosed)
	var ae *common.AcquireError
	require.True(t, errors.As(err, &ae))
}

type closedExecutor struct{ err error }

func (e closedExecutor) Submit(func()) error {
	return e.err
}

func TestDispatcherSubmitFailure(t *testing.T) {
	d, p := newTestDispatcher(t, &flakyConnector{}, 1)
	submitErr := errors.New("overloaded")
	d.workers = closedExecutor{err: submitErr}

	err := d.send([]byte("put m 1 1\n")).Wait(context.Background())
	require.ErrorIs(t, err, submitErr)
	var ae *common.AcquireError
	require.True(t, errors.As(err, &ae))

	// the lease taken before the rejected submit is handed back
	require.Equal(t, int64(1), p.acquired.Load())
	require.Equal(t, int64(1), p.released.Load())
	require.Equal(t, 0, p.Stats().Leased)
}

// parkedExecutor never runs a task until it is opened
type parkedExecutor struct{ open chan struct{} }

func (e parkedExecutor) Submit(task func()) error {
	<-e.open
	go task()
	return nil
}

func TestDispatcherSendDoesNotWaitForWorkers(t *testing.T) {
	d, p := newTestDispatcher(t, &flakyConnector{}, 1)
	exec := parkedExecutor{open: make(chan struct{})}
	d.workers = exec

	returned := make(chan *Future, 1)
	go func() { returned <- d.send([]byte("put m 1 1\n")) }()

	var f *Future
	select {
	case f = <-returned:
	case <-time.After(time.Second):
		close(exec.open)
		t.Fatal("send blocked on the executor")
	}
	require.False(t, f.IsDone())

	close(exec.open)
	require.NoError(t, f.Wait(context.Background()))
	require.Equal(t, p.acquired.Load(), p.released.Load())
}
