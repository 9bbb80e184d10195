// Package cmd implements the command-line interface of tsput. It provides
// commands for sending data points to a time-series store, load testing a store
// and running a local line protocol sink.
//
// The package is organized into several subpackages:
//
//   - put: Send data points given as arguments or line protocol on stdin
//   - perf: Concurrent load generator reporting latency percentiles and client metrics
//   - sink: Start a line protocol sink that prints and validates received points
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set via environment variables of the form TSPUT_<flag>
// (e.g. TSPUT_MAX_RETRIES=5), or in a .env / .env.local file.
//
// See tsput -help for a list of all commands.
package cmd
