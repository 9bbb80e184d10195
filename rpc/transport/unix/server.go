package unix

import (
	"github.com/ValentinKolb/tsput/rpc/transport"
	"github.com/go-faster/errors"
	"net"
	"os"
)

// serverConnector implements the IServerConnector interface for Unix sockets
type serverConnector struct{}

func (c *serverConnector) GetName() string {
	return "unix"
}

func (c *serverConnector) Listen(socketPath string) (net.Listener, error) {
	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, errors.Wrap(err, "failed to remove existing socket")
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Unix socket")
	}
	return listener, nil
}

// NewUnixServerConnector creates a new Unix socket listener connector
func NewUnixServerConnector() transport.IServerConnector {
	return &serverConnector{}
}
