// Package transport implements spec §4.5-§4.7: per-protocol acceptors,
// server-side sessions, and client-side connectors built on a shared
// framing state machine for TCP-like streams (the "stream socket helper")
// and a simpler datagram model for UDP.
//
// Design note on strands (spec §9, Design Notes): the C++ original
// serializes per-session callbacks onto a logical "strand" because asio's
// reactor can run any callback on any worker thread. Go's runtime already
// gives each goroutine its own sequential control flow, so this implementation
// takes the alternative the Design Notes call out explicitly: a session's
// streaming parser is only ever touched by its own read loop goroutine, and
// its streaming compressor only by its own write loop goroutine — ownership
// by a single goroutine *is* the strand, with no extra locking needed for
// I3. The one state both loops share — the write queue and close signaling
// — uses a channel, an atomic flag and a close channel, plus one small
// mutex (TCPSession.writeMu) that keeps Shutdown from closing the write
// channel while a Write is sending on it.
package transport

import "net"

// Peer is the uniform handle the RPC layer dispatches through, on both
// sides of the wire: a server's accepted session and a client's outbound
// connector implement the same interface (spec §9's resolution of the UDP
// "one pseudo-session per datagram" Open Question — treat the session
// abstraction as uniform across transports rather than leaking UDP's
// one-shot nature into the RPC layer).
type Peer interface {
	// ID is a short opaque label used in logs.
	ID() string
	// LocalAddr and RemoteAddr report the peer's endpoints.
	LocalAddr() net.Addr
	RemoteAddr() net.Addr

	// Serve starts delivering decoded messages to onMessage, one at a time,
	// in wire order (spec §5 ordering guarantees). onClose is invoked at
	// most once, after the last onMessage, when the peer stops producing
	// messages because of EOF or a read/parse error. A local Shutdown stops
	// delivery without invoking onClose. TCP and the UDP connector deliver
	// from a read-loop goroutine and Serve returns immediately; a UDP
	// pseudo-session delivers its one message and onClose inside Serve.
	Serve(onMessage func(raw []byte), onClose func(err error))
	// Write enqueues data (one encoded wire message) for transmission.
	// Writes to the same Peer complete in submission order (spec I2). done
	// is invoked once the write finishes or fails: from the write loop's
	// goroutine for TCP, and before Write returns for UDP peers. done is
	// never invoked if the peer was already shut down when
	// Write was called (spec: queued writes that never started silently
	// drop) — Write returns a non-nil error in that case instead.
	Write(data []byte, done func(err error)) error
	// Shutdown cancels pending operations and releases the peer's socket.
	// Idempotent.
	Shutdown()
}
