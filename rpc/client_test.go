package rpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nishisan-dev/mprpc/wire"
)

// fakePeer is a transport.Peer double that never writes anywhere and lets
// a test deliver a "server response" to the client on demand, so a
// synchronous Request's timeout can be raced against a late response
// without a real socket.
type fakePeer struct {
	mu        sync.Mutex
	onMessage func(raw []byte)
	onClose   func(err error)
}

func (p *fakePeer) ID() string           { return "fake" }
func (p *fakePeer) LocalAddr() net.Addr  { return nil }
func (p *fakePeer) RemoteAddr() net.Addr { return nil }

func (p *fakePeer) Serve(onMessage func(raw []byte), onClose func(err error)) {
	p.mu.Lock()
	p.onMessage = onMessage
	p.onClose = onClose
	p.mu.Unlock()
}

func (p *fakePeer) Write(data []byte, done func(error)) error {
	if done != nil {
		done(nil)
	}
	return nil
}

func (p *fakePeer) Shutdown() {}

func (p *fakePeer) deliver(raw []byte) {
	p.mu.Lock()
	onMessage := p.onMessage
	p.mu.Unlock()
	onMessage(raw)
}

func TestRequest_TimeoutRemovesPendingEntry(t *testing.T) {
	peer := &fakePeer{}
	client := NewClient(testLogger(), peer, time.Hour)

	// A fresh client's msgid counter starts at 0, so this is the only
	// request's id — no need to reach back into the counter afterward.
	const msgid = 0

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := Request[string](client, ctx, "slow")
	require.Error(t, err)

	client.mu.Lock()
	_, stillPending := client.pending[msgid]
	client.mu.Unlock()
	require.False(t, stillPending, "pending entry must be removed once the synchronous wait times out")

	// A late response for the timed-out msgid must now be dropped, not
	// delivered to a future nobody is waiting on anymore.
	lateResult, encErr := wire.EncodeValue("too late")
	require.NoError(t, encErr)
	resp := wire.EncodeResponse(msgid, wire.Nil(), lateResult)
	require.NotPanics(t, func() { peer.deliver(resp) })
}
