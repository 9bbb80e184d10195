package pool

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/transport"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// pipeConnector hands out net.Pipe ends and drains the server side
type pipeConnector struct {
	dials   atomic.Int64
	mu      sync.Mutex
	servers []net.Conn
	fail    error
}

func (c *pipeConnector) GetName() string {
	return "pipe"
}

func (c *pipeConnector) Connect(_ context.Context, _ string) (net.Conn, error) {
	c.dials.Inc()
	if c.fail != nil {
		return nil, c.fail
	}
	client, server := net.Pipe()
	c.mu.Lock()
	c.servers = append(c.servers, server)
	c.mu.Unlock()
	go func() { _, _ = io.Copy(io.Discard, server) }()
	return client, nil
}

func (c *pipeConnector) closeServers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.servers {
		_ = s.Close()
	}
}

func newTestPool(t *testing.T, connector transport.IClientConnector, maxConns int) *Pool {
	t.Helper()
	conf := common.DefaultClientConfig("store", 4242)
	conf.MaxConnections = maxConns
	p := NewPool(connector, conf)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestAcquireReusesIdleConnection(t *testing.T) {
	connector := &pipeConnector{}
	p := newTestPool(t, connector, 2)
	ctx := context.Background()

	c1, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Release(c1))

	c2, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.Same(t, c1, c2)
	require.Equal(t, int64(1), connector.dials.Load())

	stats := p.Stats()
	require.Equal(t, 1, stats.Leased)
	require.Equal(t, 0, stats.Idle)
	require.NoError(t, p.Release(c2))
}

func TestLeasedNeverExceedsMax(t *testing.T) {
	const maxConns = 3
	connector := &pipeConnector{}
	p := newTestPool(t, connector, maxConns)

	var (
		current atomic.Int64
		peak    atomic.Int64
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders = map[*Conn]bool{}
	)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c, err := p.Acquire(context.Background())
				if !assertNoError(t, err) {
					return
				}

				mu.Lock()
				if holders[c] {
					t.Errorf("connection %d leased twice", c.ID())
				}
				holders[c] = true
				mu.Unlock()

				n := current.Inc()
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(100 * time.Microsecond)
				current.Dec()

				mu.Lock()
				delete(holders, c)
				mu.Unlock()
				assertNoError(t, p.Release(c))
			}
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, peak.Load(), int64(maxConns))
	require.LessOrEqual(t, connector.dials.Load(), int64(maxConns))
	stats := p.Stats()
	require.Equal(t, 0, stats.Leased)
	require.LessOrEqual(t, stats.Idle, maxConns)
}

func assertNoError(t *testing.T, err error) bool {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
		return false
	}
	return true
}

func TestAcquireWaitsForRelease(t *testing.T) {
	p := newTestPool(t, &pipeConnector{}, 1)

	c1, err := p.Acquire(context.Background())
	require.NoError(t, err)

	got := make(chan *Conn, 1)
	go func() {
		c, err := p.Acquire(context.Background())
		if err == nil {
			got <- c
		}
	}()

	select {
	case <-got:
		t.Fatal("acquire must block while the only connection is leased")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, p.Release(c1))

	select {
	case c2 := <-got:
		require.Same(t, c1, c2)
		require.NoError(t, p.Release(c2))
	case <-time.After(time.Second):
		t.Fatal("waiting acquire was not served after release")
	}
}

func TestAcquireWaitersAreFIFO(t *testing.T) {
	p := newTestPool(t, &pipeConnector{}, 1)

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)

	order := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		go func() {
			conn, err := p.Acquire(context.Background())
			if err != nil {
				return
			}
			order <- i
			_ = p.Release(conn)
		}()
		// make sure waiter i is queued before waiter i+1
		require.Eventually(t, func() bool { return p.Stats().Waiting == int64(i+1) }, time.Second, time.Millisecond)
		time.Sleep(10 * time.Millisecond)
	}

	require.NoError(t, p.Release(c))
	for want := 0; want < 3; want++ {
		select {
		case got := <-order:
			require.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("waiter not served")
		}
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	p := newTestPool(t, &pipeConnector{}, 1)

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer func() { _ = p.Release(c) }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBrokenConnectionIsDiscardedAndReplacedLazily(t *testing.T) {
	connector := &pipeConnector{}
	p := newTestPool(t, connector, 2)

	c1, err := p.Acquire(context.Background())
	require.NoError(t, err)

	connector.closeServers()
	err = c1.Write([]byte("put x 1 1\n"))
	require.Error(t, err)
	var we *common.WriteError
	require.True(t, errors.As(err, &we))
	require.True(t, c1.IsBroken())

	require.NoError(t, p.Release(c1))
	stats := p.Stats()
	require.Equal(t, 0, stats.Idle)
	require.Equal(t, 0, stats.Leased)
	require.Equal(t, int64(1), stats.Discarded)

	// no eager refill
	require.Equal(t, int64(1), connector.dials.Load())

	c2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotSame(t, c1, c2)
	require.Equal(t, int64(2), connector.dials.Load())
	require.NoError(t, p.Release(c2))
}

func TestAcquireReportsDialFailure(t *testing.T) {
	dialErr := errors.New("network unreachable")
	p := newTestPool(t, &pipeConnector{fail: dialErr}, 1)

	for i := 0; i < 3; i++ {
		_, err := p.Acquire(context.Background())
		var ae *common.AcquireError
		require.True(t, errors.As(err, &ae))
		require.ErrorIs(t, err, dialErr)
	}
	// the permit was given back each time
	require.Equal(t, 0, p.Stats().Leased)
}

func TestReleaseTwice(t *testing.T) {
	p := newTestPool(t, &pipeConnector{}, 1)

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Release(c))
	require.ErrorIs(t, p.Release(c), common.ErrNotLeased)
	require.ErrorIs(t, p.Release(nil), common.ErrNotLeased)
}

func TestCloseFailsWaitersAndFutureAcquires(t *testing.T) {
	p := newTestPool(t, &pipeConnector{}, 1)

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Acquire(context.Background())
		errCh <- err
	}()
	require.Eventually(t, func() bool { return p.Stats().Waiting == 1 }, time.Second, time.Millisecond)

	require.NoError(t, p.Close())

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, common.ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("waiting acquire was not failed by close")
	}

	_, err = p.Acquire(context.Background())
	require.ErrorIs(t, err, common.ErrPoolClosed)

	// the leased connection was closed as well
	require.Error(t, c.Write([]byte("put x 1 1\n")))
	require.NoError(t, p.Release(c))
	require.NoError(t, p.Close())
}
