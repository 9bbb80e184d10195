package client

import (
	"context"
	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/transport/pool"
	"github.com/go-faster/errors"
	"github.com/panjf2000/ants/v2"
	"time"
)

// connPool is the part of pool.Pool the dispatcher depends on
type connPool interface {
	Acquire(ctx context.Context) (*pool.Conn, error)
	Release(c *pool.Conn) error
	Endpoint() string
}

// executor runs tasks on a bounded set of worker goroutines
type executor interface {
	Submit(task func()) error
}

// dispatcher performs exactly one send attempt per call: acquire a connection,
// write and flush the payload, release the connection, resolve the future.
// It has no retry logic.
//
// Waiting for a lease (a free permit or a dial) happens on the goroutine of the
// attempt, only the write and release run on the shared workers, so a saturated
// pool never parks a worker and never blocks the caller of send.
type dispatcher struct {
	pool    connPool
	workers executor
	metrics *clientMetrics
}

// send starts one attempt and returns its completion handle without blocking
func (d *dispatcher) send(payload []byte) *Future {
	f := newFuture()
	go d.attempt(payload, f)
	return f
}

// attempt leases a connection and hands the write to a worker. The connection
// is released exactly once on every path before f is resolved.
func (d *dispatcher) attempt(payload []byte, f *Future) {
	start := time.Now()
	d.metrics.attempts.Inc()

	conn, err := d.pool.Acquire(context.Background())
	if err != nil {
		d.metrics.attemptFailures.Inc()
		var ae *common.AcquireError
		if !errors.As(err, &ae) {
			err = &common.AcquireError{Endpoint: d.pool.Endpoint(), Cause: err}
		}
		f.complete(err)
		return
	}

	err = d.workers.Submit(func() {
		f.complete(d.write(conn, payload, start))
	})
	if err != nil {
		// the task never ran, the lease is still ours
		d.release(conn)
		d.metrics.attemptFailures.Inc()
		if errors.Is(err, ants.ErrPoolClosed) {
			err = common.ErrPoolClosed
		}
		f.complete(&common.AcquireError{Endpoint: d.pool.Endpoint(), Cause: err})
	}
}

// write runs on a worker
func (d *dispatcher) write(conn *pool.Conn, payload []byte, start time.Time) error {
	defer d.release(conn)

	if err := conn.Write(payload); err != nil {
		d.metrics.attemptFailures.Inc()
		return err
	}

	d.metrics.attemptDuration.UpdateDuration(start)
	d.metrics.bytes.Add(len(payload))
	return nil
}

// release returns the connection, failures are logged and never fail the send
func (d *dispatcher) release(conn *pool.Conn) {
	if err := d.pool.Release(conn); err != nil {
		Logger.Errorf("release connection %d to %s: %v", conn.ID(), d.pool.Endpoint(), err)
	}
}
