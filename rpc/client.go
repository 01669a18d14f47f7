package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinylib/msgp/msgp"

	"github.com/nishisan-dev/mprpc/mprpcerr"
	"github.com/nishisan-dev/mprpc/transport"
	"github.com/nishisan-dev/mprpc/wire"
)

// pendingEntry is one row of the client's msgid -> promise table (spec
// §4.10). complete is type-erased because Go's generics can't put
// differently-instantiated Future[R]s in the same map; each caller's
// AsyncRequest/Request closes over its own typed Future when building this.
type pendingEntry struct {
	complete func(resultBytes, errBytes []byte, transportErr error)
}

// Client is spec §4.10's client correlator: msgid allocation, the pending
// table, and the single read loop that fulfills promises as responses
// arrive.
type Client struct {
	logger         *slog.Logger
	peer           transport.Peer
	msgids         wire.MsgIDCounter
	defaultTimeout time.Duration

	mu      sync.Mutex
	pending map[uint32]*pendingEntry
	closed  bool
}

// NewClient wraps peer as an RPC client and starts its read loop. peer must
// not already be served by anything else. defaultTimeout is used by
// Request when the caller's context has no deadline (spec §6's
// sync_request_timeout_ms).
func NewClient(logger *slog.Logger, peer transport.Peer, defaultTimeout time.Duration) *Client {
	if logger == nil {
		panic("rpc: NewClient requires a non-nil logger")
	}
	if peer == nil {
		panic("rpc: NewClient requires a non-nil peer")
	}
	c := &Client{
		logger:         logger.With("component", "client"),
		peer:           peer,
		defaultTimeout: defaultTimeout,
		pending:        make(map[uint32]*pendingEntry),
	}
	peer.Serve(c.onMessage, c.onClose)
	return c
}

func (c *Client) onMessage(raw []byte) {
	msg, err := wire.Parse(raw)
	if err != nil {
		c.logger.Warn("dropping malformed message from server", "error", err)
		return
	}
	if msg.Kind() != wire.KindResponse {
		c.logger.Warn("client received non-response message, ignoring", "kind", msg.Kind())
		return
	}

	entry, ok := c.takePending(msg.MsgID())
	if !ok {
		c.logger.Debug("response for unknown or already-resolved msgid, dropping", "msgid", msg.MsgID())
		return
	}
	entry.complete(msg.Result(), msg.Err(), nil)
}

// onClose implements the failure cascade from spec §4.10: a terminal read
// error fails every outstanding promise instead of leaving them hanging.
func (c *Client) onClose(err error) {
	c.mu.Lock()
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint32]*pendingEntry)
	c.mu.Unlock()

	if err == nil {
		err = mprpcerr.New(mprpcerr.KindEOF, "connection closed")
	}
	for _, entry := range pending {
		entry.complete(nil, nil, err)
	}
}

func (c *Client) takePending(msgid uint32) (*pendingEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.pending[msgid]
	if ok {
		delete(c.pending, msgid)
	}
	return entry, ok
}

// addPending inserts entry under msgid if the connection is open and msgid
// isn't already taken. Returns false on collision so the caller can retry
// with a fresh msgid (spec §4.10 step 3), or on a closed connection, which
// the caller surfaces as an error.
func (c *Client) addPending(msgid uint32, entry *pendingEntry) (inserted bool, closed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, true
	}
	if _, exists := c.pending[msgid]; exists {
		return false, false
	}
	c.pending[msgid] = entry
	return true, false
}

func (c *Client) removePending(msgid uint32) {
	c.mu.Lock()
	delete(c.pending, msgid)
	c.mu.Unlock()
}

// AsyncRequest packs and sends a request for method with args as its
// params, returning a Future[R] fulfilled when the response arrives (or
// the request/connection fails). R must match the Go type msgp.ReadIntfBytes
// produces for the server's result (string, int64, uint64, float64, bool,
// []interface{}, map[string]interface{}, or nil for R = any).
func AsyncRequest[R any](c *Client, method string, args ...interface{}) (*Future[R], error) {
	future, _, err := asyncRequest[R](c, method, args...)
	return future, err
}

// asyncRequest is AsyncRequest's body, plus the allocated msgid so Request
// can remove the pending entry itself if its wait times out.
func asyncRequest[R any](c *Client, method string, args ...interface{}) (*Future[R], uint32, error) {
	future := newFuture[R]()

	params, err := wire.EncodeParams(args...)
	if err != nil {
		return nil, 0, fmt.Errorf("rpc: encoding params: %w", err)
	}

	entry := &pendingEntry{
		complete: func(resultBytes, errBytes []byte, transportErr error) {
			completeFuture(future, resultBytes, errBytes, transportErr)
		},
	}

	var msgid uint32
	for {
		msgid = c.msgids.Next()
		inserted, closed := c.addPending(msgid, entry)
		if closed {
			return nil, 0, mprpcerr.New(mprpcerr.KindFailedToWrite, "client connection already closed")
		}
		if inserted {
			break
		}
		// c.msgids is a monotonic counter so a collision can only happen
		// after it wraps a full 2^32 requests with the original still
		// outstanding; spec §4.10 calls for retrying in that case.
	}

	req := wire.EncodeRequest(msgid, method, params)
	if err := c.peer.Write(req, nil); err != nil {
		c.removePending(msgid)
		var zero R
		future.complete(zero, fmt.Errorf("rpc: writing request: %w", err))
		return future, msgid, nil
	}

	return future, msgid, nil
}

func completeFuture[R any](future *Future[R], resultBytes, errBytes []byte, transportErr error) {
	var zero R
	if transportErr != nil {
		future.complete(zero, transportErr)
		return
	}
	if !msgp.IsNil(errBytes) {
		errMsg, _ := wire.DecodeValue(errBytes)
		future.complete(zero, fmt.Errorf("server error: %v", errMsg))
		return
	}
	val, err := wire.DecodeValue(resultBytes)
	if err != nil {
		future.complete(zero, fmt.Errorf("rpc: decoding result: %w", err))
		return
	}
	if val == nil {
		future.complete(zero, nil)
		return
	}
	r, ok := val.(R)
	if !ok {
		future.complete(zero, fmt.Errorf("rpc: result type %T does not match requested type", val))
		return
	}
	future.complete(r, nil)
}

// Request performs a synchronous call: AsyncRequest followed by Get against
// ctx, or against c.defaultTimeout if ctx carries no deadline (spec §6's
// sync_request_timeout_ms / §4.10 "Synchronous request").
func Request[R any](c *Client, ctx context.Context, method string, args ...interface{}) (R, error) {
	var zero R
	future, msgid, err := asyncRequest[R](c, method, args...)
	if err != nil {
		return zero, err
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.defaultTimeout)
		defer cancel()
	}
	val, err := future.Get(ctx)
	if err != nil && mprpcerr.Is(err, mprpcerr.KindClientTimeout) {
		// A timeout only unblocks the caller; the response can still
		// arrive later. Remove the pending entry so onMessage treats that
		// late arrival as unknown and drops it instead of completing an
		// already-returned future.
		c.removePending(msgid)
	}
	return val, err
}

// Notify packs and sends a notification (spec §4.10 "Notification flow"):
// no msgid is allocated and no promise is created.
func (c *Client) Notify(method string, args ...interface{}) error {
	params, err := wire.EncodeParams(args...)
	if err != nil {
		return fmt.Errorf("rpc: encoding params: %w", err)
	}
	return c.peer.Write(wire.EncodeNotification(method, params), nil)
}

// Close shuts down the underlying peer.
func (c *Client) Close() {
	c.peer.Shutdown()
}
