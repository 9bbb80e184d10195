package client

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/transport/pool"
	"github.com/go-faster/errors"
	"go.uber.org/atomic"
)

var errDial = errors.New("connection refused")

// flakyConnector fails the first failures dials and hands out drained net.Pipe
// ends afterward. With failures < 0 every dial fails.
type flakyConnector struct {
	failures int64
	dials    atomic.Int64

	mu       sync.Mutex
	received [][]byte
}

func (c *flakyConnector) GetName() string {
	return "flaky"
}

func (c *flakyConnector) Connect(_ context.Context, _ string) (net.Conn, error) {
	n := c.dials.Inc()
	if c.failures < 0 || n <= c.failures {
		return nil, errDial
	}
	client, server := net.Pipe()
	go func() {
		buf := make([]byte, 4096)
		for {
			k, err := server.Read(buf)
			if k > 0 {
				c.mu.Lock()
				c.received = append(c.received, append([]byte(nil), buf[:k]...))
				c.mu.Unlock()
			}
			if err != nil {
				if err != io.EOF {
					_ = server.Close()
				}
				return
			}
		}
	}()
	return client, nil
}

func (c *flakyConnector) bytesReceived() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []byte
	for _, b := range c.received {
		out = append(out, b...)
	}
	return out
}

// goExecutor runs every task on a fresh goroutine
type goExecutor struct{}

func (goExecutor) Submit(task func()) error {
	go task()
	return nil
}

// countingPool records acquire and release calls of the wrapped pool
type countingPool struct {
	*pool.Pool
	acquired atomic.Int64
	released atomic.Int64
}

func (p *countingPool) Acquire(ctx context.Context) (*pool.Conn, error) {
	c, err := p.Pool.Acquire(ctx)
	if err == nil {
		p.acquired.Inc()
	}
	return c, err
}

func (p *countingPool) Release(c *pool.Conn) error {
	p.released.Inc()
	return p.Pool.Release(c)
}

func testConfig(maxConns, maxRetries int) common.ClientConfig {
	conf := common.DefaultClientConfig("store", 4242)
	conf.MaxConnections = maxConns
	conf.MaxRetries = maxRetries
	conf.RetryDelayMillisecond = 1
	conf.Workers = 8
	return conf
}

func newTestDispatcher(t *testing.T, connector *flakyConnector, maxConns int) (*dispatcher, *countingPool) {
	t.Helper()
	p := &countingPool{Pool: pool.NewPool(connector, testConfig(maxConns, 0))}
	t.Cleanup(func() { _ = p.Close() })
	return &dispatcher{pool: p, workers: goExecutor{}, metrics: newClientMetrics(p.Stats)}, p
}
