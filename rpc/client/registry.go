package client

import (
	"context"
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is an add-only, self-draining set of in-flight futures. A future
// removes itself once it resolves, whether or not anyone waits on it. A shutdown
// path can use AwaitAllComplete to drain outstanding sends without tracking each
// handle itself.
type Registry struct {
	pending *xsync.MapOf[*Future, struct{}]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		pending: xsync.NewMapOf[*Future, struct{}](),
	}
}

// Add inserts f. Already resolved futures are removed right away.
func (r *Registry) Add(f *Future) {
	r.pending.Store(f, struct{}{})
	f.OnComplete(func(error) {
		r.pending.Delete(f)
	})
}

// Remove deletes f from the registry, removing an absent future is a no-op
func (r *Registry) Remove(f *Future) {
	r.pending.Delete(f)
}

// Len returns the number of unresolved futures
func (r *Registry) Len() int {
	return r.pending.Size()
}

// AwaitAllComplete blocks until every future in the registry at call time has
// resolved. Futures added during the wait are not waited for. It returns
// ctx.Err() if ctx is done first.
func (r *Registry) AwaitAllComplete(ctx context.Context) error {
	snapshot := make([]*Future, 0, r.pending.Size())
	r.pending.Range(func(f *Future, _ struct{}) bool {
		snapshot = append(snapshot, f)
		return true
	})

	for _, f := range snapshot {
		select {
		case <-f.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
