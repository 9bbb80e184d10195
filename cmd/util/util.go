package util

import (
	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/transport"
	"github.com/ValentinKolb/tsput/rpc/transport/tcp"
	"github.com/ValentinKolb/tsput/rpc/transport/unix"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Client flags and configuration
// --------------------------------------------------------------------------

// SetupClientFlags adds the connection flags of a put client to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "host"
	cmd.PersistentFlags().String(key, "localhost", WrapString("Host of the time-series store, or the socket path for the unix transport"))

	key = "port"
	cmd.PersistentFlags().Int(key, 4242, WrapString("Port of the time-series store (ignored for unix)"))

	key = "max-connections"
	cmd.PersistentFlags().Int(key, common.DefaultMaxConnections, WrapString("Maximum number of simultaneously open connections"))

	key = "max-retries"
	cmd.PersistentFlags().Int(key, common.DefaultMaxRetries, WrapString("How many times a failed send is retried (0 disables retries)"))

	key = "retry-delay"
	cmd.PersistentFlags().Int(key, common.DefaultRetryDelayMillisecond, WrapString("Backoff unit in milliseconds, retry n waits 2^n units"))

	key = "workers"
	cmd.PersistentFlags().Int(key, common.DefaultWorkers, WrapString("Number of goroutines executing send attempts"))

	key = "dial-timeout"
	cmd.PersistentFlags().Int(key, common.DefaultDialTimeoutSecond, WrapString("Timeout in seconds for opening a connection"))

	key = "write-timeout"
	cmd.PersistentFlags().Int(key, 0, WrapString("Timeout in seconds for writing a payload (0 disables the deadline)"))

	key = "write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, 30, WrapString("The keepalive interval in seconds, 0 disables keepalive (only for tcp)"))
}

// InitConfig loads .env files and binds TSPUT_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("tsput")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// InitLogging sets the level of all tsput loggers from the log-level flag
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() common.ClientConfig {
	conf := common.ClientConfig{
		Host:                  viper.GetString("host"),
		Port:                  viper.GetInt("port"),
		MaxConnections:        viper.GetInt("max-connections"),
		MaxRetries:            viper.GetInt("max-retries"),
		RetryDelayMillisecond: viper.GetInt("retry-delay"),
		Workers:               viper.GetInt("workers"),
		Transport: common.ClientTransportConfig{
			DialTimeoutSecond:  viper.GetInt("dial-timeout"),
			WriteTimeoutSecond: viper.GetInt("write-timeout"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("write-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPNoDelay:      viper.GetBool("tcp-nodelay"),
				TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			},
		},
	}

	// unix sockets are addressed by path only
	if viper.GetString("transport") == "unix" {
		conf.Port = 0
	}

	return conf
}

// GetClientConnector creates the client connector selected by the transport flag
func GetClientConnector(conf common.ClientTransportConfig) (transport.IClientConnector, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientConnector(conf), nil
	case "unix":
		return unix.NewUnixClientConnector(conf), nil
	default:
		return nil, errors.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerConnector creates the listener connector selected by the transport flag
func GetServerConnector() (transport.IServerConnector, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerConnector(), nil
	case "unix":
		return unix.NewUnixServerConnector(), nil
	default:
		return nil, errors.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}
