// Package pool implements the bounded connection pool that the put client writes
// through.
//
// The pool owns every connection. A caller leases one with Acquire, uses it for a
// single write and gives it back with Release. A connection is in exactly one of
// three states: idle (in the pool), leased (checked out by one caller) or closed.
//
// Guarantees:
//
//   - idle + leased connections never exceed maxConnections.
//   - a connection is never leased to two callers at the same time.
//   - blocked Acquire calls are served in FIFO order.
//   - a connection that failed a write is discarded on release; the pool does not
//     refill eagerly, the next Acquire that finds no idle connection opens a new one.
//   - Close fails all waiting and future Acquire calls with common.ErrPoolClosed.
//
// Dialing happens outside the pool lock, so a slow handshake never stalls other
// Acquire or Release calls.
package pool
