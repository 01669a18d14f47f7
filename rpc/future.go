package rpc

import (
	"context"
	"sync"

	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// Future is spec §4.11's typed_response_future<R>: a promise/future pair
// (§9 Design Notes) completed exactly once (I4), from any worker, and
// consumable either by callback (Then) or blocking wait (Get). Generics
// give this the same duality as the original's then()/get() pair without
// needing a separate untyped future layered underneath.
type Future[R any] struct {
	mu      sync.Mutex
	done    bool
	value   R
	err     error
	handler func(R, error)
	doneCh  chan struct{}
}

// newFuture constructs an incomplete future. Unexported: callers obtain one
// from a Client's request methods, never directly.
func newFuture[R any]() *Future[R] {
	return &Future[R]{doneCh: make(chan struct{})}
}

// complete fulfills the future. A second call is a no-op: per I4 a promise
// is fulfilled exactly once, and since complete is only ever invoked
// internally by the correlator (never exposed to callers), that invariant
// holds by construction rather than needing InvalidFutureUse enforcement.
func (f *Future[R]) complete(value R, err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.value = value
	f.err = err
	h := f.handler
	f.mu.Unlock()
	close(f.doneCh)
	if h != nil {
		h(value, err)
	}
}

// Then registers a completion callback. If the future is already complete,
// it fires immediately on the calling goroutine; otherwise it fires later
// from whichever goroutine completes the future (spec §9: "the late arrival
// observes the other side under the mutex").
func (f *Future[R]) Then(onDone func(R, error)) {
	f.mu.Lock()
	if f.done {
		v, e := f.value, f.err
		f.mu.Unlock()
		onDone(v, e)
		return
	}
	f.handler = onDone
	f.mu.Unlock()
}

// Get blocks until the future completes or ctx is done, whichever comes
// first. A context deadline maps to the idiomatic Go equivalent of spec
// §4.11's get(timeout) overload; this does not remove any pending-table
// entry itself (that's the client correlator's job on ClientTimeout).
func (f *Future[R]) Get(ctx context.Context) (R, error) {
	select {
	case <-f.doneCh:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, mprpcerr.Wrap(mprpcerr.KindClientTimeout, "waiting for response", ctx.Err())
	}
}
