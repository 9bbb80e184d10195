package pool

import (
	"bufio"
	"github.com/ValentinKolb/tsput/rpc/common"
	"go.uber.org/atomic"
	"net"
	"sync"
	"time"
)

const defaultWriteBufferSize = 4096

// Conn is a pooled connection. It is owned by the pool and may only be used by
// the caller that acquired it, until it is released.
type Conn struct {
	id           uint64
	conn         net.Conn
	w            *bufio.Writer
	created      time.Time
	writeTimeout time.Duration

	broken    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newConn(id uint64, conn net.Conn, config common.ClientTransportConfig) *Conn {
	size := config.WriteBufferSize
	if size <= 0 {
		size = defaultWriteBufferSize
	}
	return &Conn{
		id:           id,
		conn:         conn,
		w:            bufio.NewWriterSize(conn, size),
		created:      time.Now(),
		writeTimeout: time.Duration(config.WriteTimeoutSecond) * time.Second,
	}
}

// ID returns the pool-unique id of the connection
func (c *Conn) ID() uint64 {
	return c.id
}

// Created returns the time the connection was opened
func (c *Conn) Created() time.Time {
	return c.created
}

// RemoteAddr returns the address of the store
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Write writes the payload and flushes it to the socket. On failure the connection
// is marked broken, so the pool discards it on release.
func (c *Conn) Write(payload []byte) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return c.fail(err)
		}
	}
	if _, err := c.w.Write(payload); err != nil {
		return c.fail(err)
	}
	if err := c.w.Flush(); err != nil {
		return c.fail(err)
	}
	return nil
}

// MarkBroken flags the connection for discard on release
func (c *Conn) MarkBroken() {
	c.broken.Store(true)
}

// IsBroken reports whether the connection will be discarded on release
func (c *Conn) IsBroken() bool {
	return c.broken.Load()
}

func (c *Conn) fail(err error) error {
	c.MarkBroken()
	return &common.WriteError{ConnID: c.id, Cause: err}
}

// close closes the socket once, later calls return the first result
func (c *Conn) close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
