// Package rpc contains the network side of tsput: everything needed to deliver
// data points to a remote time-series store over its line protocol.
//
// The package is organized into several subpackages:
//
//   - common: Configuration structures, error types and logger setup shared by
//     all other packages.
//
//   - serializer: Turns data points into line protocol payloads.
//
//   - transport: Pluggable connectors (TCP, Unix sockets) and the bounded
//     connection pool built on top of them.
//
//   - client: The asynchronous put client with its dispatcher, retry controller
//     and pending operation registry.
//
//   - server: A line protocol sink that receives what clients send, used for
//     tests and local debugging.
package rpc
