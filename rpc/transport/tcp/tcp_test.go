package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/stretchr/testify/require"
)

func TestTCPConnectorDials(t *testing.T) {
	listener, err := NewTCPServerConnector().Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err == nil {
			_ = conn.Close()
		}
	}()

	connector := NewTCPClientConnector(common.ClientTransportConfig{
		DialTimeoutSecond: 1,
		SocketConf:        common.SocketConf{WriteBufferSize: 64 * 1024},
		TCPConf:           common.TCPConf{TCPNoDelay: true, TCPKeepAliveSec: 30},
	})
	require.Equal(t, "tcp", connector.GetName())

	conn, err := connector.Connect(context.Background(), listener.Addr().String())
	require.NoError(t, err)
	_, ok := conn.(*net.TCPConn)
	require.True(t, ok)
	require.NoError(t, conn.Close())
}

func TestTCPConnectorHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	connector := NewTCPClientConnector(common.ClientTransportConfig{DialTimeoutSecond: 1})
	_, err := connector.Connect(ctx, "127.0.0.1:1")
	require.Error(t, err)
}

func TestTCPConnectorRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = NewTCPClientConnector(common.ClientTransportConfig{DialTimeoutSecond: 1}).Connect(ctx, addr)
	require.Error(t, err)
}
