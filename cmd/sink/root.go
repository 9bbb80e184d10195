package sink

import (
	"fmt"
	"github.com/ValentinKolb/tsput/cmd/util"
	"github.com/ValentinKolb/tsput/lib/datapoint"
	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/server"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/atomic"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	Logger = logger.GetLogger("cli")

	sinkCmdConfig = &common.ServerConfig{}

	// SinkCmd starts a line protocol sink
	SinkCmd = &cobra.Command{
		Use:   "sink",
		Short: "Start a line protocol sink",
		Long: `Start a server that accepts put connections, validates every received line
and prints the valid points to stdout. Useful to inspect what a client sends
without a running time-series store. The format of the environment variables
is TSPUT_<flag> (e.g. TSPUT_ENDPOINT=0.0.0.0:4242)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "endpoint"
	SinkCmd.Flags().String(key, "127.0.0.1:4242", util.WrapString("The address on which the sink will listen (e.g. 0.0.0.0:4242, /tmp/tsput.sock, ...)"))

	key = "timeout"
	SinkCmd.Flags().Int64(key, 0, util.WrapString("Close connections that stay idle this long (in seconds, 0 disables the timeout)"))

	key = "quiet"
	SinkCmd.Flags().Bool(key, false, util.WrapString("Only count received points, do not print them"))
}

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	sinkCmdConfig.Endpoint = viper.GetString("endpoint")
	sinkCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	sinkCmdConfig.LogLevel = viper.GetString("log-level")

	return common.InitLoggers(sinkCmdConfig.LogLevel)
}

func run(_ *cobra.Command, _ []string) error {
	connector, err := util.GetServerConnector()
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if viper.GetBool("quiet") {
		out = io.Discard
	}
	c := newCollector(out)

	Logger.Infof(sinkCmdConfig.String())
	s := server.NewLineServer(connector, c.handle)

	// close the sink on SIGINT / SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if err := s.Close(); err != nil {
			Logger.Errorf("closing sink: %v", err)
		}
	}()

	if err := s.Listen(*sinkCmdConfig); err != nil {
		return err
	}

	valid, invalid := c.counts()
	fmt.Fprintf(os.Stderr, "received %d valid and %d invalid lines\n", valid, invalid)
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// collector validates received lines and writes the valid ones to out
type collector struct {
	mu      sync.Mutex
	out     io.Writer
	valid   atomic.Int64
	invalid atomic.Int64
}

func newCollector(out io.Writer) *collector {
	return &collector{out: out}
}

func (c *collector) handle(remote net.Addr, line string) {
	p, err := datapoint.ParseLine(line)
	if err != nil {
		c.invalid.Inc()
		Logger.Warningf("invalid line from %s: %q: %v", remote, line, err)
		return
	}
	c.valid.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.out, p.String()); err != nil {
		Logger.Errorf("write point: %v", err)
	}
}

func (c *collector) counts() (valid, invalid int64) {
	return c.valid.Load(), c.invalid.Load()
}
