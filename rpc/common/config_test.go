package common

import (
	"testing"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/require"
)

func TestDefaultClientConfig(t *testing.T) {
	c := DefaultClientConfig("localhost", 4242)

	require.Equal(t, 8, c.MaxConnections)
	require.Equal(t, 2, c.MaxRetries)
	require.Equal(t, time.Second, c.RetryDelay())
	require.True(t, c.Transport.TCPNoDelay)
	require.Equal(t, "localhost:4242", c.Endpoint())
	require.NoError(t, c.Validate())
	require.Contains(t, c.String(), "localhost:4242")
}

func TestNormalizeKeepsZeroRetries(t *testing.T) {
	c := ClientConfig{Host: "/tmp/tsdb.sock"}
	c.Normalize()

	require.Equal(t, DefaultMaxConnections, c.MaxConnections)
	require.Equal(t, 0, c.MaxRetries)
	require.Equal(t, DefaultWorkers, c.Workers)
	require.Equal(t, "/tmp/tsdb.sock", c.Endpoint())
}

func TestValidate(t *testing.T) {
	c := DefaultClientConfig("", 4242)
	require.Error(t, c.Validate())

	c = DefaultClientConfig("localhost", 70000)
	require.Error(t, c.Validate())

	c = DefaultClientConfig("localhost", 4242)
	c.MaxRetries = -1
	require.Error(t, c.Validate())
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, logger.WARNING, lvl)

	_, err = ParseLogLevel("verbose")
	require.Error(t, err)
}
