package unix

import (
	"context"
	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/transport"
	"net"
	"time"
)

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct {
	dialTimeout time.Duration
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(ctx context.Context, endpoint string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	return dialer.DialContext(ctx, "unix", endpoint)
}

// --------------------------------------------------------------------------
// Factory Method
// --------------------------------------------------------------------------

// NewUnixClientConnector creates a new Unix socket connector
func NewUnixClientConnector(config common.ClientTransportConfig) transport.IClientConnector {
	return &clientConnector{
		dialTimeout: time.Duration(config.DialTimeoutSecond) * time.Second,
	}
}
