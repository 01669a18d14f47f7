package transport

import (
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/nishisan-dev/mprpc/codec"
	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// UDPSession is the server-side "one pseudo-session per datagram" peer from
// spec §9's Open Question: a UDPAcceptor reads one datagram, decodes exactly
// one message from it (UDP's codec is always the non-streaming form, spec
// §4.4), and hands it to a fresh UDPSession wrapping that single message and
// the socket+remote address needed to reply. It satisfies Peer so the RPC
// dispatcher does not need to know it isn't a persistent connection.
type UDPSession struct {
	id     string
	conn   *net.UDPConn
	remote *net.UDPAddr
	logger *slog.Logger
	codec  codec.NonStreamingCodec
	msg    []byte

	served atomic.Bool
}

// NewUDPSession wraps one already-decoded datagram payload for delivery
// through the Peer interface.
func NewUDPSession(conn *net.UDPConn, remote *net.UDPAddr, logger *slog.Logger, cdc codec.NonStreamingCodec, msg []byte) *UDPSession {
	id := newID()
	return &UDPSession{
		id:     id,
		conn:   conn,
		remote: remote,
		logger: logger.With("component", "udp_session", "session_id", id),
		codec:  cdc,
		msg:    msg,
	}
}

func (s *UDPSession) ID() string           { return s.id }
func (s *UDPSession) LocalAddr() net.Addr  { return s.conn.LocalAddr() }
func (s *UDPSession) RemoteAddr() net.Addr { return s.remote }

// Serve delivers the single message this pseudo-session was constructed
// with, then immediately reports closure. A second call is rejected: a
// datagram pseudo-session has exactly one message to give.
func (s *UDPSession) Serve(onMessage func([]byte), onClose func(error)) {
	if !s.served.CompareAndSwap(false, true) {
		onClose(mprpcerr.New(mprpcerr.KindFailedToRead, "udp pseudo-session already served"))
		return
	}
	onMessage(s.msg)
	onClose(mprpcerr.New(mprpcerr.KindEOF, "udp pseudo-session exhausted"))
}

// Write sends one reply datagram to the remote address captured when the
// request datagram arrived.
func (s *UDPSession) Write(data []byte, done func(error)) error {
	frame, err := s.codec.Compress(data)
	if err != nil {
		if done != nil {
			done(err)
		}
		return err
	}
	_, err = s.conn.WriteToUDP(frame.Bytes(), s.remote)
	if err != nil {
		err = mprpcerr.Wrap(mprpcerr.KindFailedToWrite, "writing udp datagram", err)
	}
	if done != nil {
		done(err)
	}
	return err
}

// Shutdown is a no-op: the pseudo-session does not own the shared UDP
// socket, only a reference to it.
func (s *UDPSession) Shutdown() {}
