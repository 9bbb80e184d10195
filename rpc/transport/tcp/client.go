package tcp

import (
	"context"
	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/transport"
	"github.com/go-faster/errors"
	"net"
	"time"
)

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct {
	config common.ClientTransportConfig
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) Connect(ctx context.Context, endpoint string) (net.Conn, error) {
	dialer := net.Dialer{
		Timeout: time.Duration(c.config.DialTimeoutSecond) * time.Second,
	}
	if c.config.TCPKeepAliveSec > 0 {
		dialer.KeepAlive = time.Duration(c.config.TCPKeepAliveSec) * time.Second
	} else {
		dialer.KeepAlive = -1 // disabled
	}

	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, err
	}

	if err := c.upgradeConnection(conn); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "upgrade connection to %s", endpoint)
	}
	return conn, nil
}

// upgradeConnection applies the configured socket options to a TCP connection
func (c *clientConnector) upgradeConnection(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(c.config.TCPNoDelay); err != nil {
		return err
	}

	// Set socket write buffer size if configured
	if c.config.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(c.config.WriteBufferSize); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Factory Method
// --------------------------------------------------------------------------

// NewTCPClientConnector creates a new TCP connector with the given socket options
func NewTCPClientConnector(config common.ClientTransportConfig) transport.IClientConnector {
	return &clientConnector{config: config}
}
