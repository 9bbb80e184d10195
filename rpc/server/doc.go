// Package server implements a line protocol sink: a server that accepts put
// connections and passes every received line to a handler without replying.
//
// The sink stands in for the store in tests and backs the "tsput sink" command,
// which prints and validates what a client sends.
//
// Thread Safety:
//
//	Every connection is served by its own goroutine, so the handler must be safe
//	for concurrent use. Close waits for all connection goroutines to return.
package server
