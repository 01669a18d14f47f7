package transport

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	"github.com/nishisan-dev/mprpc/codec"
	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// TCPAcceptor listens on a TCP address and hands each accepted connection to
// the caller as a Peer, per spec §4.6. It has no opinion on what happens to
// a session after that; the RPC dispatcher wires up onMessage/onClose.
type TCPAcceptor struct {
	logger     *slog.Logger
	codecCfg   codec.Config
	minBufSize int
	ln         net.Listener
}

// NewTCPAcceptor constructs an acceptor for the given codec configuration
// and streaming_min_buf_size (0 picks the session default).
func NewTCPAcceptor(logger *slog.Logger, codecCfg codec.Config, minBufSize int) *TCPAcceptor {
	return &TCPAcceptor{
		logger:     logger.With("component", "tcp_acceptor"),
		codecCfg:   codecCfg,
		minBufSize: minBufSize,
	}
}

// Listen binds the listening socket. Call once before AcceptLoop.
func (a *TCPAcceptor) Listen(host string, port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return mprpcerr.Wrap(mprpcerr.KindFailedToListen, "listening on tcp", err)
	}
	a.ln = ln
	a.logger.Info("tcp acceptor listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address; only valid after a successful Listen.
func (a *TCPAcceptor) Addr() net.Addr { return a.ln.Addr() }

// AcceptLoop accepts connections until ctx is canceled or the listener is
// closed, invoking onSession with a fresh Peer for each one. It blocks the
// calling goroutine.
func (a *TCPAcceptor) AcceptLoop(ctx context.Context, onSession func(Peer)) error {
	go func() {
		<-ctx.Done()
		_ = a.ln.Close()
	}()

	for {
		conn, err := a.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return mprpcerr.Wrap(mprpcerr.KindFailedToAccept, "accepting tcp connection", err)
		}

		parser, perr := a.codecCfg.NewStreamParser()
		if perr != nil {
			_ = conn.Close()
			a.logger.Error("failed to build stream parser", "error", perr)
			continue
		}
		compressor, cerr := a.codecCfg.NewStreamCompressor()
		if cerr != nil {
			_ = conn.Close()
			a.logger.Error("failed to build stream compressor", "error", cerr)
			continue
		}
		compressor.Init()

		session := NewTCPSession(conn, a.logger, parser, compressor, a.minBufSize)
		onSession(session)
	}
}
