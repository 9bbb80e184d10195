package common

import (
	"fmt"
	"github.com/go-faster/errors"
	"net"
	"strconv"
	"strings"
	"time"
)

// Default values of the client configuration
const (
	DefaultMaxConnections        = 8
	DefaultMaxRetries            = 2
	DefaultRetryDelayMillisecond = 1000
	DefaultWorkers               = 64
	DefaultDialTimeoutSecond     = 10
)

// --------------------------------------------------------------------------
// Client configuration structs
// --------------------------------------------------------------------------

// TCPConf holds the TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
}

// SocketConf holds the generic socket options
type SocketConf struct {
	WriteBufferSize int
}

// ClientTransportConfig holds the connection settings of a client
type ClientTransportConfig struct {
	DialTimeoutSecond  int
	WriteTimeoutSecond int // 0 disables the write deadline
	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters of a put client
type ClientConfig struct {
	// Host is the host name of the store, or the socket path for unix transports
	Host string
	// Port of the store, ignored for unix transports
	Port int

	// MaxConnections bounds the connection pool
	MaxConnections int
	// MaxRetries is the number of retries after the first failed attempt (0 disables retries)
	MaxRetries int
	// RetryDelayMillisecond is the backoff unit, retry n waits 2^n units
	RetryDelayMillisecond int
	// Workers is the number of goroutines executing send attempts
	Workers int

	Transport ClientTransportConfig
}

// DefaultClientConfig returns the default configuration for the given endpoint
func DefaultClientConfig(host string, port int) ClientConfig {
	return ClientConfig{
		Host:                  host,
		Port:                  port,
		MaxConnections:        DefaultMaxConnections,
		MaxRetries:            DefaultMaxRetries,
		RetryDelayMillisecond: DefaultRetryDelayMillisecond,
		Workers:               DefaultWorkers,
		Transport: ClientTransportConfig{
			DialTimeoutSecond: DefaultDialTimeoutSecond,
			TCPConf: TCPConf{
				TCPNoDelay:      true,
				TCPKeepAliveSec: 30,
			},
		},
	}
}

// Endpoint returns the dial address of the store
func (c *ClientConfig) Endpoint() string {
	if c.Port <= 0 {
		return c.Host
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RetryDelay returns the backoff unit as duration
func (c *ClientConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillisecond) * time.Millisecond
}

// Normalize replaces unset values with their defaults (MaxRetries is kept, 0 is valid)
func (c *ClientConfig) Normalize() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.RetryDelayMillisecond <= 0 {
		c.RetryDelayMillisecond = DefaultRetryDelayMillisecond
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
}

// Validate checks that the configuration can be used to build a client
func (c *ClientConfig) Validate() error {
	if c.Host == "" {
		return errors.New("no host provided")
	}
	if c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.MaxRetries < 0 {
		return errors.Errorf("invalid max retries %d", c.MaxRetries)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint())
	addField("Max Connections", strconv.Itoa(c.MaxConnections))
	addField("Max Retries", strconv.Itoa(c.MaxRetries))
	addField("Retry Delay", c.RetryDelay().String())
	addField("Workers", strconv.Itoa(c.Workers))

	addSection("Transport")
	addField("Dial Timeout", fmt.Sprintf("%d sec", c.Transport.DialTimeoutSecond))
	addField("Write Timeout", fmt.Sprintf("%d sec", c.Transport.WriteTimeoutSecond))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))
	addField("TCP NoDelay", fmt.Sprintf("%t", c.Transport.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))

	return sb.String()
}

// --------------------------------------------------------------------------
// Sink server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds the configuration of the line protocol sink server
type ServerConfig struct {
	Endpoint      string
	TimeoutSecond int64
	LogLevel      string
}

// String returns a formatted string representation of the server configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder
	sb.WriteString("\nSINK SERVER\n")
	sb.WriteString(fmt.Sprintf("  %-22s: %s\n", "Endpoint", c.Endpoint))
	sb.WriteString(fmt.Sprintf("  %-22s: %d sec\n", "Read Timeout", c.TimeoutSecond))
	sb.WriteString(fmt.Sprintf("  %-22s: %s\n", "Log Level", c.LogLevel))
	return sb.String()
}
