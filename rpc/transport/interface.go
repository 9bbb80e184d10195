package transport

import (
	"context"
	"net"
)

// --------------------------------------------------------------------------
// Client side
// --------------------------------------------------------------------------

// IClientConnector defines the transport-specific connection setup of a client.
// It is the only place where sockets are created, the pool treats the result as
// an opaque bidirectional byte stream.
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(ctx context.Context, endpoint string) (net.Conn, error)
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// ConnectorFunc adapts a plain dial function to IClientConnector
type ConnectorFunc func(ctx context.Context, endpoint string) (net.Conn, error)

func (f ConnectorFunc) Connect(ctx context.Context, endpoint string) (net.Conn, error) {
	return f(ctx, endpoint)
}

func (f ConnectorFunc) GetName() string {
	return "func"
}

// --------------------------------------------------------------------------
// Server side
// --------------------------------------------------------------------------

// IServerConnector defines the transport-specific listener setup of the sink server
type IServerConnector interface {
	// Listen creates a listener on the endpoint
	Listen(endpoint string) (net.Listener, error)
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}
