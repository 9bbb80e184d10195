// Package client implements the asynchronous put client: a worker-driven send
// pipeline on top of the connection pool, with retries and completion handles.
//
// Control flow:
//
//	caller → retrier → dispatcher → pool.Pool → transport connector
//
// Key Components:
//
//   - Client: public entry point. Put/PutBatch block the calling goroutine,
//     PutAsync/PutBatchAsync return a *Future immediately. Shutdown closes the pool,
//     drains in-flight sends and stops the workers.
//
//   - Future: single-assignment completion handle. It can be awaited (Wait, Done),
//     observed (OnComplete) or tracked by a Registry without triggering a send.
//
//   - dispatcher: one attempt per call. The connection is acquired on the
//     goroutine of the attempt, the write and flush run on an ants worker pool.
//     The connection is released on every path before the future resolves and
//     callers never block.
//
//   - retrier: wraps the dispatcher. A failed attempt n is retried after 2^n
//     backoff units until maxRetries is reached, then the future fails with
//     common.RetriesExhaustedError wrapping the last cause. Intermediate failures
//     are only logged. Sends failing with common.ErrPoolClosed stop immediately.
//
//   - Registry: self-draining set of futures with AwaitAllComplete for shutdown paths.
//
// Usage Example:
//
//	conf := common.DefaultClientConfig("localhost", 4242)
//	c, err := client.NewClient(conf, tcp.NewTCPClientConnector(conf.Transport))
//	if err != nil {
//	  return err
//	}
//	defer c.Shutdown(context.Background())
//
//	p := datapoint.MustNew("cpu", time.Now().UnixMilli(), datapoint.Int(42), map[string]string{"host": "a"})
//	if err := c.Put(ctx, p); err != nil {
//	  return err
//	}
//
//	f := c.PutAsync(p)
//	f.OnComplete(func(err error) { ... })
//
// Delivery Semantics:
//
//	Retries resend the identical payload, so a point may be delivered more than
//	once. There is no ordering guarantee between independent sends, and nothing
//	is persisted across restarts.
package client
