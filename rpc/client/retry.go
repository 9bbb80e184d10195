package client

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"math"
	"sync"
	"time"
)

// retrier wraps the dispatcher with bounded exponential backoff.
//
// Each retried send is driven by its own goroutine running an explicit loop over
// the attempt counter: attempt n+1 starts only after attempt n is resolved and
// the backoff delay 2^n units has passed. Only the terminal outcome reaches the
// caller's future.
type retrier struct {
	dispatcher *dispatcher
	newBackOff func() backoff.BackOff
	metrics    *clientMetrics

	// stopCh is closed on shutdown, it cuts pending backoff waits short
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newRetrier(d *dispatcher, unit time.Duration, m *clientMetrics) *retrier {
	return &retrier{
		dispatcher: d,
		newBackOff: exponentialBackOff(unit),
		metrics:    m,
		stopCh:     make(chan struct{}),
	}
}

// exponentialBackOff returns a factory for a jitter free schedule of 1, 2, 4, ... units
func exponentialBackOff(unit time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		b := &backoff.ExponentialBackOff{
			InitialInterval:     unit,
			RandomizationFactor: 0,
			Multiplier:          2,
			MaxInterval:         time.Duration(math.MaxInt64),
			MaxElapsedTime:      0,
			Stop:                backoff.Stop,
			Clock:               backoff.SystemClock,
		}
		b.Reset()
		return b
	}
}

// sendWithRetry sends the payload with up to maxRetries retries. With maxRetries
// of 0 the dispatcher's future is returned as is.
func (r *retrier) sendWithRetry(payload []byte, maxRetries int) *Future {
	if maxRetries <= 0 {
		return r.dispatcher.send(payload)
	}

	outer := newFuture()
	go r.run(payload, maxRetries, outer)
	return outer
}

func (r *retrier) run(payload []byte, maxRetries int, outer *Future) {
	bo := r.newBackOff()

	for attempt := 0; ; attempt++ {
		err := r.dispatcher.send(payload).wait()
		if err == nil {
			outer.complete(nil)
			return
		}

		// after shutdown every further attempt fails the same way
		if errors.Is(err, common.ErrPoolClosed) {
			outer.complete(err)
			return
		}

		if attempt >= maxRetries {
			outer.complete(&common.RetriesExhaustedError{Attempts: attempt + 1, Cause: err})
			return
		}

		delay := bo.NextBackOff()
		r.metrics.retries.Inc()
		Logger.Warningf("send error: %s, retry %d/%d in %s: %v", summarize(payload), attempt+1, maxRetries, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-r.stopCh:
			timer.Stop()
		}
	}
}

// stop wakes all sleeping retries, their next attempt fails fast on the closed pool
func (r *retrier) stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}

// summarize returns the first line of the payload and the number of lines
func summarize(payload []byte) string {
	lines := bytes.Count(payload, []byte{'\n'})
	first, _, _ := bytes.Cut(payload, []byte{'\n'})
	if lines > 1 {
		return fmt.Sprintf("%s (+%d lines)", first, lines-1)
	}
	return string(first)
}
