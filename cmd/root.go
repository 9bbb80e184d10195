package cmd

import (
	"fmt"
	"github.com/ValentinKolb/tsput/cmd/perf"
	"github.com/ValentinKolb/tsput/cmd/put"
	"github.com/ValentinKolb/tsput/cmd/sink"
	"github.com/ValentinKolb/tsput/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "tsput",
		Short: "asynchronous time-series put client",
		Long: fmt.Sprintf(`tsput (v%s)

An asynchronous client for time-series stores that accept the
"put <metric> <timestamp> <value> [tags]" line protocol, with a
bounded connection pool and retries with exponential backoff.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tsput",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tsput v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(put.PutCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(sink.SinkCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
