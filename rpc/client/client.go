package client

import (
	"context"
	"github.com/ValentinKolb/tsput/lib/datapoint"
	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/serializer"
	"github.com/ValentinKolb/tsput/rpc/transport"
	"github.com/ValentinKolb/tsput/rpc/transport/pool"
	"github.com/go-faster/errors"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"io"
	"sync"
)

var (
	Logger = logger.GetLogger("client")
)

// Client submits data points to the store over pooled connections.
// All methods are safe for concurrent use.
type Client struct {
	config     common.ClientConfig
	serializer serializer.IPutSerializer

	pool       *pool.Pool
	workers    *ants.Pool
	dispatcher *dispatcher
	retrier    *retrier
	pending    *Registry
	metrics    *clientMetrics

	closed       atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewClient creates a client for the store described by config. No connection
// is opened until the first send.
func NewClient(config common.ClientConfig, connector transport.IClientConnector) (*Client, error) {
	config.Normalize()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid client config")
	}

	workers, err := ants.NewPool(config.Workers, ants.WithPanicHandler(func(p interface{}) {
		Logger.Errorf("send worker panicked: %v", p)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}

	p := pool.NewPool(connector, config)
	m := newClientMetrics(p.Stats)
	d := &dispatcher{pool: p, workers: workers, metrics: m}

	c := &Client{
		config:     config,
		serializer: serializer.NewLineSerializer(),
		pool:       p,
		workers:    workers,
		dispatcher: d,
		retrier:    newRetrier(d, config.RetryDelay(), m),
		pending:    NewRegistry(),
		metrics:    m,
	}

	Logger.Infof("client for %s ready (%s transport, %d connections, %d retries)",
		config.Endpoint(), connector.GetName(), config.MaxConnections, config.MaxRetries)
	return c, nil
}

// --------------------------------------------------------------------------
// Blocking API
// --------------------------------------------------------------------------

// Put sends a single point and blocks the calling goroutine until the send has
// succeeded or finally failed. ctx only bounds the wait, not the send.
func (c *Client) Put(ctx context.Context, point datapoint.DataPoint) error {
	return c.PutAsync(point).Wait(ctx)
}

// PutBatch sends all points with a single write and blocks until the outcome is known
func (c *Client) PutBatch(ctx context.Context, points []datapoint.DataPoint) error {
	return c.PutBatchAsync(points).Wait(ctx)
}

// --------------------------------------------------------------------------
// Non-blocking API
// --------------------------------------------------------------------------

// PutAsync sends a single point and returns its completion handle
func (c *Client) PutAsync(point datapoint.DataPoint) *Future {
	return c.PutBatchAsync([]datapoint.DataPoint{point})
}

// PutBatchAsync serializes the points, in order, into one payload and sends it
// with retries. An empty batch resolves successfully without sending anything.
func (c *Client) PutBatchAsync(points []datapoint.DataPoint) *Future {
	if c.closed.Load() {
		return completedFuture(common.ErrPoolClosed)
	}
	if len(points) == 0 {
		return completedFuture(nil)
	}

	payload, err := c.serializer.Serialize(points...)
	if err != nil {
		return completedFuture(err)
	}

	c.metrics.sends.Inc()
	c.metrics.points.Add(len(points))

	f := c.retrier.sendWithRetry(payload, c.config.MaxRetries)
	f.OnComplete(func(err error) {
		if err != nil {
			c.metrics.sendFailures.Inc()
			Logger.Errorf("send of %d points to %s failed: %v", len(points), c.config.Endpoint(), err)
		}
	})
	c.pending.Add(f)
	return f
}

// --------------------------------------------------------------------------
// Lifecycle and introspection
// --------------------------------------------------------------------------

// Shutdown closes the pool so new and retried sends fail fast, drains all
// in-flight sends (bounded by ctx) and stops the workers. Every later call
// fails with common.ErrPoolClosed. Shutdown is idempotent.
func (c *Client) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		c.closed.Store(true)

		if err := c.pool.Close(); err != nil {
			c.shutdownErr = multierr.Append(c.shutdownErr, errors.Wrap(err, "close pool"))
		}
		c.retrier.stop()

		if err := c.pending.AwaitAllComplete(ctx); err != nil {
			c.shutdownErr = multierr.Append(c.shutdownErr, errors.Wrap(err, "drain pending sends"))
		}

		c.workers.Release()
		Logger.Infof("client for %s shut down", c.config.Endpoint())
	})
	return c.shutdownErr
}

// Pending returns the registry of all unresolved sends of this client
func (c *Client) Pending() *Registry {
	return c.pending
}

// PoolStats returns a snapshot of the connection pool
func (c *Client) PoolStats() pool.Stats {
	return c.pool.Stats()
}

// Config returns the normalized configuration of the client
func (c *Client) Config() common.ClientConfig {
	return c.config
}

// WritePrometheus writes the client metrics in Prometheus text format to w
func (c *Client) WritePrometheus(w io.Writer) {
	c.metrics.set.WritePrometheus(w)
}
