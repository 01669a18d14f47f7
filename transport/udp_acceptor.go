package transport

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	"github.com/nishisan-dev/mprpc/codec"
	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// datagramBufSize is the default largest UDP payload mprpc will attempt
// to read: the 16-bit UDP length limit (65535) minus the 8-byte UDP header.
const datagramBufSize = 65527

// UDPAcceptor listens on a UDP socket and produces one UDPSession per
// inbound datagram (spec §9's Open Question resolution: "unusual, treat as
// byte-compatibility constraint, not a necessary abstraction").
type UDPAcceptor struct {
	logger  *slog.Logger
	codec   codec.NonStreamingCodec
	bufSize int
	conn    *net.UDPConn
}

// NewUDPAcceptor constructs an acceptor using the given non-streaming codec
// (UDP datagrams are never split across reads, so no StreamParser is
// needed; spec §4.4). bufSize of 0 picks datagramBufSize.
func NewUDPAcceptor(logger *slog.Logger, cdc codec.NonStreamingCodec, bufSize int) *UDPAcceptor {
	if bufSize <= 0 {
		bufSize = datagramBufSize
	}
	return &UDPAcceptor{
		logger:  logger.With("component", "udp_acceptor"),
		codec:   cdc,
		bufSize: bufSize,
	}
}

// Listen binds the UDP socket.
func (a *UDPAcceptor) Listen(host string, port int) error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return mprpcerr.Wrap(mprpcerr.KindFailedToResolve, "resolving udp address", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return mprpcerr.Wrap(mprpcerr.KindFailedToListen, "listening on udp", err)
	}
	a.conn = conn
	a.logger.Info("udp acceptor listening", "addr", conn.LocalAddr().String())
	return nil
}

// Addr returns the bound address; only valid after a successful Listen.
func (a *UDPAcceptor) Addr() net.Addr { return a.conn.LocalAddr() }

// AcceptLoop reads datagrams until ctx is canceled or the socket is closed,
// handing each one to onSession as a fresh UDPSession. Malformed datagrams
// (failing decompression) are logged and dropped rather than torn down,
// since a single bad datagram must not affect any other peer (spec §9).
func (a *UDPAcceptor) AcceptLoop(ctx context.Context, onSession func(Peer)) error {
	go func() {
		<-ctx.Done()
		_ = a.conn.Close()
	}()

	buf := make([]byte, a.bufSize)
	for {
		n, remote, err := a.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return mprpcerr.Wrap(mprpcerr.KindFailedToRead, "reading udp datagram", err)
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		msg, err := a.codec.Decompress(payload)
		if err != nil {
			a.logger.Warn("dropping malformed udp datagram", "remote", remote.String(), "error", err)
			continue
		}

		onSession(NewUDPSession(a.conn, remote, a.logger, a.codec, msg))
	}
}
