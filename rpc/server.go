package rpc

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nishisan-dev/mprpc/mprpcerr"
	"github.com/nishisan-dev/mprpc/pool"
	"github.com/nishisan-dev/mprpc/transport"
	"github.com/nishisan-dev/mprpc/wire"
)

// Dispatcher is spec §4.9's server dispatcher: a method_name -> executor
// map, a worker pool that runs invocations off the read loop, and the live
// session set it serves.
type Dispatcher struct {
	logger  *slog.Logger
	pool    *pool.Pool
	methods map[string]MethodExecutor

	mu       sync.Mutex
	sessions map[string]transport.Peer
}

// NewDispatcher constructs a Dispatcher. logger and workerPool must be
// non-nil (original_source's require_nonull.h convention: fail loudly at
// construction, not on first use).
func NewDispatcher(logger *slog.Logger, workerPool *pool.Pool) *Dispatcher {
	if logger == nil {
		panic("rpc: NewDispatcher requires a non-nil logger")
	}
	if workerPool == nil {
		panic("rpc: NewDispatcher requires a non-nil pool")
	}
	return &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		pool:     workerPool,
		methods:  make(map[string]MethodExecutor),
		sessions: make(map[string]transport.Peer),
	}
}

// RegisterMethod installs executor under name. Call before serving any
// session; the method map is read without a lock once sessions are live.
func (d *Dispatcher) RegisterMethod(name string, executor MethodExecutor) {
	d.methods[name] = executor
}

// RegisterFunc wraps fn with RegisterFunc and installs it under name.
func (d *Dispatcher) RegisterFunc(name string, fn interface{}) error {
	executor, err := RegisterFunc(fn)
	if err != nil {
		return fmt.Errorf("rpc: registering method %q: %w", name, err)
	}
	d.RegisterMethod(name, executor)
	return nil
}

// Serve starts reading from peer and dispatching its messages, per spec
// §4.9. It returns immediately; the session is torn down (and removed from
// the live set) when the peer reports closure.
func (d *Dispatcher) Serve(peer transport.Peer) {
	d.mu.Lock()
	d.sessions[peer.ID()] = peer
	d.mu.Unlock()

	peer.Serve(
		func(raw []byte) { d.onMessage(peer, raw) },
		func(err error) { d.onClose(peer, err) },
	)
}

func (d *Dispatcher) onMessage(peer transport.Peer, raw []byte) {
	msg, err := wire.Parse(raw)
	if err != nil {
		d.logger.Warn("dropping session on parse failure", "session", peer.ID(), "error", err)
		peer.Shutdown()
		return
	}

	switch msg.Kind() {
	case wire.KindRequest:
		d.pool.Post(func() { d.handleRequest(peer, msg) })
	case wire.KindNotification:
		d.pool.Post(func() { d.handleNotification(msg) })
	case wire.KindResponse:
		d.logger.Warn("dropping session: response received on server-ingress session", "session", peer.ID())
		peer.Shutdown()
	}
}

func (d *Dispatcher) handleRequest(peer transport.Peer, msg *wire.Message) {
	executor, ok := d.methods[msg.Method()]
	var result, errVal []byte
	if !ok {
		result = wire.Nil()
		errVal, _ = wire.EncodeValue(fmt.Sprintf("method not found: %q", msg.Method()))
	} else {
		result, errVal = executor.Invoke(msg.Params())
	}

	resp := wire.EncodeResponse(msg.MsgID(), errVal, result)
	if err := peer.Write(resp, nil); err != nil {
		d.logger.Debug("writing response failed", "session", peer.ID(), "error", err)
	}
}

func (d *Dispatcher) handleNotification(msg *wire.Message) {
	executor, ok := d.methods[msg.Method()]
	if !ok {
		d.logger.Debug("notification for unknown method, ignoring", "method", msg.Method())
		return
	}
	// Return value is discarded per spec §4.9; only invocation side effects matter.
	executor.Invoke(msg.Params())
}

func (d *Dispatcher) onClose(peer transport.Peer, err error) {
	d.mu.Lock()
	delete(d.sessions, peer.ID())
	d.mu.Unlock()
	if err != nil && !mprpcerr.Is(err, mprpcerr.KindEOF) {
		d.logger.Debug("session closed", "session", peer.ID(), "error", err)
	}
}

// SessionCount reports the number of live sessions, for tests and metrics.
func (d *Dispatcher) SessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}
