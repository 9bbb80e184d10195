package client

import (
	"context"
	"sync"
)

// CompleteFunc resolves a Future. Only the first call has an effect, it reports
// whether the call resolved the future.
type CompleteFunc func(err error) bool

// Future is a single-assignment completion handle of one logical send. It resolves
// exactly once, with a nil error on success or the terminal failure cause.
// Waiting on a Future never triggers a send.
type Future struct {
	done chan struct{}

	mu        sync.Mutex
	completed bool
	err       error
	listeners []func(error)
}

// NewFuture creates a pending future and the function that resolves it
func NewFuture() (*Future, CompleteFunc) {
	f := newFuture()
	return f, f.complete
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// completedFuture returns an already resolved future
func completedFuture(err error) *Future {
	f := newFuture()
	f.complete(err)
	return f
}

// Done returns a channel that is closed once the future is resolved
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future is resolved
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the failure cause, nil while pending or on success
func (f *Future) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Wait blocks until the future is resolved and returns its outcome, or returns
// ctx.Err() if ctx is done first
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wait blocks until the future is resolved
func (f *Future) wait() error {
	<-f.done
	return f.Err()
}

// OnComplete registers fn to be called with the outcome. If the future is
// already resolved fn runs immediately on the calling goroutine, otherwise on the
// goroutine that resolves the future.
func (f *Future) OnComplete(fn func(error)) {
	f.mu.Lock()
	if f.completed {
		err := f.err
		f.mu.Unlock()
		fn(err)
		return
	}
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

func (f *Future) complete(err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.err = err
	listeners := f.listeners
	f.listeners = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(err)
	}
	return true
}
