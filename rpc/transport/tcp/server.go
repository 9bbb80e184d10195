package tcp

import (
	"github.com/ValentinKolb/tsput/rpc/transport"
	"github.com/go-faster/errors"
	"net"
)

// serverConnector implements the IServerConnector interface for TCP sockets
type serverConnector struct{}

func (c *serverConnector) GetName() string {
	return "tcp"
}

func (c *serverConnector) Listen(endpoint string) (net.Listener, error) {
	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create TCP socket")
	}
	return listener, nil
}

// NewTCPServerConnector creates a new TCP listener connector
func NewTCPServerConnector() transport.IServerConnector {
	return &serverConnector{}
}
