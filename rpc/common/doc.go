// Package common provides the configuration structures, error kinds and logging
// shared by all tsput packages.
//
// Key Components:
//
//   - ClientConfig: constructor-level configuration of a put client (endpoint, pool
//     size, retry limit and backoff unit, worker count, socket options). Built with
//     DefaultClientConfig, which mirrors the defaults of 8 connections and 2 retries.
//
//   - ServerConfig: configuration of the line protocol sink server.
//
//   - Error kinds: ErrPoolClosed, AcquireError, WriteError and RetriesExhaustedError.
//     All wrapping errors unwrap to their cause, so errors.Is/As work across layers.
//
//   - Logger: custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
package common
