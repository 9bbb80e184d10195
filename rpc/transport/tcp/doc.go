// Package tcp implements the TCP connectors of the transport package.
//
// Key Components:
//
//   - clientConnector: dials the store and applies TCP_NODELAY, keep-alive and the
//     socket write buffer size from common.ClientTransportConfig.
//
//   - serverConnector: opens the TCP listener used by the sink server.
package tcp
