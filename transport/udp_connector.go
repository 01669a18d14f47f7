package transport

import (
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/nishisan-dev/mprpc/codec"
	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// UDPConnector is the client-side UDP peer: unlike the server's
// one-pseudo-session-per-datagram model, a client dials once and then reuses
// the same socket for every request/notification it sends, reading replies
// back on a single read loop, so it can sit behind the same Peer interface
// the RPC client correlator uses for TCP.
type UDPConnector struct {
	id      string
	conn    *net.UDPConn
	logger  *slog.Logger
	codec   codec.NonStreamingCodec
	bufSize int

	closed  atomic.Bool
	closeCh chan struct{}
	wg      sync.WaitGroup

	shutdownOnce sync.Once
}

// DialUDP "connects" a UDP socket to host:port (fixing the remote address
// for subsequent Write/Read calls) and wraps it as a Peer.
func DialUDP(logger *slog.Logger, host string, port int, cdc codec.NonStreamingCodec, bufSize int) (*UDPConnector, error) {
	if bufSize <= 0 {
		bufSize = datagramBufSize
	}
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindFailedToResolve, "resolving udp address", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindFailedToConnect, "dialing udp", err)
	}
	return &UDPConnector{
		id:      newID(),
		conn:    conn,
		logger:  logger.With("component", "udp_connector"),
		codec:   cdc,
		bufSize: bufSize,
		closeCh: make(chan struct{}),
	}, nil
}

func (c *UDPConnector) ID() string           { return c.id }
func (c *UDPConnector) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *UDPConnector) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Serve starts the read loop delivering decoded reply datagrams.
func (c *UDPConnector) Serve(onMessage func([]byte), onClose func(error)) {
	c.wg.Add(1)
	go c.readLoop(onMessage, onClose)
}

func (c *UDPConnector) readLoop(onMessage func([]byte), onClose func(error)) {
	defer c.wg.Done()
	buf := make([]byte, c.bufSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.Shutdown()
			onClose(mprpcerr.Wrap(mprpcerr.KindFailedToRead, "reading udp datagram", err))
			return
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])

		msg, derr := c.codec.Decompress(payload)
		if derr != nil {
			c.logger.Warn("dropping malformed udp datagram", "error", derr)
			continue
		}
		onMessage(msg)
	}
}

// Write sends one datagram to the connector's fixed remote address.
func (c *UDPConnector) Write(data []byte, done func(error)) error {
	if c.closed.Load() {
		return mprpcerr.ErrOperationAborted
	}
	frame, err := c.codec.Compress(data)
	if err != nil {
		if done != nil {
			done(err)
		}
		return err
	}
	_, err = c.conn.Write(frame.Bytes())
	if err != nil {
		err = mprpcerr.Wrap(mprpcerr.KindFailedToWrite, "writing udp datagram", err)
	}
	if done != nil {
		done(err)
	}
	return err
}

// Shutdown closes the socket, unblocking the read loop. Idempotent.
func (c *UDPConnector) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)
		_ = c.conn.Close()
	})
}
