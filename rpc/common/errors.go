package common

import (
	"fmt"
	"github.com/go-faster/errors"
)

var (
	// ErrPoolClosed is returned by every operation attempted after shutdown
	ErrPoolClosed = errors.New("pool closed")
	// ErrNotLeased is returned when a connection is released that is not checked out
	ErrNotLeased = errors.New("connection not leased")
)

// AcquireError reports that the pool could not produce a connection
type AcquireError struct {
	Endpoint string
	Cause    error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("acquire connection to %s: %v", e.Endpoint, e.Cause)
}

func (e *AcquireError) Unwrap() error {
	return e.Cause
}

// WriteError reports a transport failure while writing or flushing a payload
type WriteError struct {
	ConnID uint64
	Cause  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to connection %d: %v", e.ConnID, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// RetriesExhaustedError is the terminal failure of a retried send, it wraps the
// cause of the last attempt
type RetriesExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("send failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Cause
}
