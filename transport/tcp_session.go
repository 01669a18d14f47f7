package transport

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/nishisan-dev/mprpc/codec"
	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// writeJob is one entry in a TCPSession's write queue: the message bytes
// and the completion handler to invoke once it's on the wire (or failed).
type writeJob struct {
	data []byte
	done func(error)
}

// TCPSession is the stream socket helper from spec §4.5: it owns the
// framing state machine for one TCP-like connection, used identically for
// a server's accepted peer and a client's outbound connector (spec §9).
type TCPSession struct {
	id         string
	conn       net.Conn
	logger     *slog.Logger
	parser     codec.StreamParser
	compressor codec.StreamCompressor
	minBufSize int

	writeCh chan writeJob
	writeMu sync.Mutex // serializes Write's send against Shutdown's close(writeCh)
	closed  atomic.Bool
	closeCh chan struct{}
	wg      sync.WaitGroup

	shutdownOnce sync.Once
}

// NewTCPSession wraps an already-connected net.Conn (from an accept or a
// dial) with the given codec pair and minimum streaming_min_buf_size (spec
// §6).
func NewTCPSession(conn net.Conn, logger *slog.Logger, parser codec.StreamParser, compressor codec.StreamCompressor, minBufSize int) *TCPSession {
	if minBufSize <= 0 {
		minBufSize = 1024
	}
	id := newID()
	return &TCPSession{
		id:         id,
		conn:       conn,
		logger:     logger.With("component", "tcp_session", "session_id", id),
		parser:     parser,
		compressor: compressor,
		minBufSize: minBufSize,
		writeCh:    make(chan writeJob, 64),
		closeCh:    make(chan struct{}),
	}
}

func (s *TCPSession) ID() string             { return s.id }
func (s *TCPSession) LocalAddr() net.Addr    { return s.conn.LocalAddr() }
func (s *TCPSession) RemoteAddr() net.Addr   { return s.conn.RemoteAddr() }

// Serve starts the read loop (spec §4.5 "Read protocol") and the write loop
// (spec §4.5 "Write protocol") as two goroutines. At most one read is ever
// outstanding (I1) and writes hit the wire in submission order (I2) because
// each loop is a single sequential goroutine owning its half of the
// session.
func (s *TCPSession) Serve(onMessage func(raw []byte), onClose func(err error)) {
	s.wg.Add(1)
	go s.writeLoop()

	s.wg.Add(1)
	go s.readLoop(onMessage, onClose)
}

func (s *TCPSession) readLoop(onMessage func([]byte), onClose func(error)) {
	defer s.wg.Done()
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		// Step 1: a full message may already be sitting in the parser's
		// buffer from a previous, larger read.
		ok, err := s.parser.ParseNext(0)
		if err != nil {
			s.fail(onClose, mprpcerr.Wrap(mprpcerr.KindParseError, "parsing buffered bytes", err))
			return
		}
		if ok {
			msg, err := s.parser.Get()
			if err != nil {
				s.fail(onClose, mprpcerr.Wrap(mprpcerr.KindParseError, "retrieving parsed message", err))
				return
			}
			onMessage(msg)
			continue
		}

		// Step 2: request more bytes from the socket into the parser's
		// buffer. Go's net.Conn has no portable equivalent of asio's
		// socket.available(), so this reads once per iteration sized at
		// streaming_min_buf_size rather than probing for extra readable
		// bytes first.
		region, err := s.parser.PrepareBuffer(s.minBufSize)
		if err != nil {
			s.fail(onClose, mprpcerr.Wrap(mprpcerr.KindUnexpectedError, "preparing read buffer", err))
			return
		}

		n, err := s.conn.Read(region)
		if n > 0 {
			ok, perr := s.parser.ParseNext(n)
			if perr != nil {
				s.fail(onClose, mprpcerr.Wrap(mprpcerr.KindParseError, "parsing read bytes", perr))
				return
			}
			if ok {
				msg, gerr := s.parser.Get()
				if gerr != nil {
					s.fail(onClose, mprpcerr.Wrap(mprpcerr.KindParseError, "retrieving parsed message", gerr))
					return
				}
				onMessage(msg)
			}
		}
		if err != nil {
			s.handleReadErr(err, onClose)
			return
		}
	}
}

func (s *TCPSession) handleReadErr(err error, onClose func(error)) {
	if errors.Is(err, io.EOF) {
		s.fail(onClose, mprpcerr.New(mprpcerr.KindEOF, "peer closed connection"))
		return
	}
	if s.closed.Load() {
		// Shutdown closed the socket out from under us: operation-aborted,
		// drop silently (spec §5 Cancellation).
		return
	}
	s.fail(onClose, mprpcerr.Wrap(mprpcerr.KindFailedToRead, "reading from socket", err))
}

func (s *TCPSession) fail(onClose func(error), err error) {
	s.Shutdown()
	onClose(err)
}

func (s *TCPSession) writeLoop() {
	defer s.wg.Done()
	for job := range s.writeCh {
		frame, err := s.compressor.Compress(job.data)
		if err != nil {
			if job.done != nil {
				job.done(mprpcerr.Wrap(mprpcerr.KindUnexpectedError, "compressing message", err))
			}
			continue
		}
		_, err = s.conn.Write(frame.Bytes())
		if err != nil && !s.closed.Load() {
			err = mprpcerr.Wrap(mprpcerr.KindFailedToWrite, "writing to socket", err)
		} else if s.closed.Load() {
			err = mprpcerr.ErrOperationAborted
		}
		if job.done != nil {
			job.done(err)
		}
	}
}

// Write enqueues one message for transmission. Returns an error without
// enqueuing if the session has already been shut down.
//
// writeMu serializes this against Shutdown's close(writeCh): without it, a
// Shutdown could close writeCh between the closed.Load() check below and
// the select's send case, and a send on a closed channel panics even when
// raced against a ready closeCh case in the same select. Holding writeMu
// for the whole check-then-send keeps Shutdown from closing the channel
// mid-call.
func (s *TCPSession) Write(data []byte, done func(error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed.Load() {
		return mprpcerr.ErrOperationAborted
	}
	select {
	case s.writeCh <- writeJob{data: data, done: done}:
		return nil
	case <-s.closeCh:
		return mprpcerr.ErrOperationAborted
	}
}

// Shutdown closes the socket, which unblocks any pending Read/Write, then
// stops accepting new writes. Idempotent.
func (s *TCPSession) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		_ = s.conn.Close()
		s.writeMu.Lock()
		close(s.writeCh)
		s.writeMu.Unlock()
	})
}
