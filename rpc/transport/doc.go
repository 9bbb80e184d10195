// Package transport defines the connector interfaces that separate socket setup
// from the connection pool and the sink server.
//
// Implementations:
//
//   - tcp: TCP connector with TCP_NODELAY, keep-alive and socket buffer options.
//
//   - unix: Unix domain socket connector.
//
//   - pool: the bounded connection pool built on top of any IClientConnector.
package transport
