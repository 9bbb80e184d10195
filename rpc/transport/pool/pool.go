package pool

import (
	"context"
	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/transport"
	"github.com/go-faster/errors"
	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
	"sync"
)

var Logger = logger.GetLogger("pool")

// Stats is a point-in-time snapshot of the pool state
type Stats struct {
	MaxConnections int
	Idle           int
	Leased         int
	Waiting        int64 // approximate number of blocked acquire calls
	Created        int64 // connections opened since start
	Discarded      int64 // broken connections closed on release
}

// Pool is a bounded pool of connections to a single endpoint.
//
// A semaphore with maxConnections permits guards the lease count: every leased
// connection holds exactly one permit, idle connections hold none. Blocked
// acquire calls wait on the semaphore in FIFO order. New connections are only
// opened by a permit holder that found no idle connection, so that
// idle+leased never exceeds maxConnections.
type Pool struct {
	connector transport.IClientConnector
	endpoint  string
	config    common.ClientTransportConfig
	max       int

	sem *semaphore.Weighted

	mu     sync.Mutex
	idle   []*Conn
	leased map[*Conn]struct{}
	closed bool

	// closeCtx is cancelled by Close and aborts all waiting acquire calls
	closeCtx context.Context
	closeFn  context.CancelFunc

	nextID    atomic.Uint64
	created   atomic.Int64
	discarded atomic.Int64
	waiting   atomic.Int64
}

// NewPool creates an empty pool. Connections are opened lazily by Acquire.
func NewPool(connector transport.IClientConnector, config common.ClientConfig) *Pool {
	config.Normalize()
	closeCtx, closeFn := context.WithCancel(context.Background())
	return &Pool{
		connector: connector,
		endpoint:  config.Endpoint(),
		config:    config.Transport,
		max:       config.MaxConnections,
		sem:       semaphore.NewWeighted(int64(config.MaxConnections)),
		leased:    make(map[*Conn]struct{}, config.MaxConnections),
		closeCtx:  closeCtx,
		closeFn:   closeFn,
	}
}

// Endpoint returns the address the pool connects to
func (p *Pool) Endpoint() string {
	return p.endpoint
}

// Acquire leases a connection. It returns an idle connection if there is one,
// opens a new one if fewer than maxConnections exist, and otherwise waits until
// a connection is released, ctx is done or the pool is closed.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.isClosed() {
		return nil, common.ErrPoolClosed
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.closeCtx, cancel)
	defer stop()

	p.waiting.Inc()
	err := p.sem.Acquire(waitCtx, 1)
	p.waiting.Dec()
	if err != nil {
		if p.closeCtx.Err() != nil {
			return nil, common.ErrPoolClosed
		}
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, common.ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		p.leased[c] = struct{}{}
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	// dial without holding the lock, the permit reserves our slot
	c, err := p.open(waitCtx)
	if err != nil {
		p.sem.Release(1)
		if p.closeCtx.Err() != nil {
			return nil, common.ErrPoolClosed
		}
		return nil, &common.AcquireError{Endpoint: p.endpoint, Cause: err}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = c.close()
		p.sem.Release(1)
		return nil, common.ErrPoolClosed
	}
	p.leased[c] = struct{}{}
	p.mu.Unlock()
	return c, nil
}

// Release returns a leased connection. Healthy connections become idle and the
// oldest waiting Acquire is woken, broken connections are closed and not replaced
// until a later Acquire needs one.
func (p *Pool) Release(c *Conn) error {
	if c == nil {
		return common.ErrNotLeased
	}

	p.mu.Lock()
	if _, ok := p.leased[c]; !ok {
		p.mu.Unlock()
		return errors.Wrapf(common.ErrNotLeased, "connection %d", c.id)
	}
	delete(p.leased, c)

	if p.closed || c.IsBroken() {
		closed := p.closed
		p.mu.Unlock()
		if err := c.close(); err != nil {
			Logger.Debugf("closing connection %d to %s: %v", c.id, p.endpoint, err)
		}
		if !closed {
			p.discarded.Inc()
			Logger.Debugf("discarded broken connection %d to %s", c.id, p.endpoint)
		}
		p.sem.Release(1)
		return nil
	}

	p.idle = append(p.idle, c)
	p.mu.Unlock()
	p.sem.Release(1)
	return nil
}

// Close closes all idle and leased connections and fails all waiting acquire calls.
// Acquire fails with common.ErrPoolClosed afterward. Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.closeFn()

	conns := make([]*Conn, 0, len(p.idle)+len(p.leased))
	conns = append(conns, p.idle...)
	for c := range p.leased {
		conns = append(conns, c)
	}
	p.idle = nil
	p.mu.Unlock()

	var err error
	for _, c := range conns {
		err = multierr.Append(err, c.close())
	}

	Logger.Infof("closed pool to %s (%d connections)", p.endpoint, len(conns))
	return err
}

// Stats returns a snapshot of the pool state
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	idle, leased := len(p.idle), len(p.leased)
	p.mu.Unlock()

	return Stats{
		MaxConnections: p.max,
		Idle:           idle,
		Leased:         leased,
		Waiting:        p.waiting.Load(),
		Created:        p.created.Load(),
		Discarded:      p.discarded.Load(),
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// open establishes a new connection via the connector
func (p *Pool) open(ctx context.Context) (*Conn, error) {
	netConn, err := p.connector.Connect(ctx, p.endpoint)
	if err != nil {
		return nil, err
	}

	c := newConn(p.nextID.Inc(), netConn, p.config)
	p.created.Inc()
	Logger.Debugf("opened connection %d to %s using %s transport", c.id, p.endpoint, p.connector.GetName())
	return c, nil
}
