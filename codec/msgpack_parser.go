package codec

import (
	"errors"

	"github.com/tinylib/msgp/msgp"

	"github.com/nishisan-dev/mprpc/buffer"
	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// MessagePackParser is the streaming MessagePack parser from spec §4.4. It
// only knows how to find the boundary of the next complete top-level
// MessagePack value in an accumulating byte buffer — it doesn't know or
// care about the request/response/notification schema; that's wire.Parse's
// job, applied to the raw bytes this returns from Get().
//
// Boundary detection is done with msgp.Skip, which walks one complete
// value's header(s) without allocating a decoded copy, and returns
// msgp.ErrShortBytes precisely when the buffered bytes end mid-value — the
// "not enough bytes yet, preserve state" signal spec §4.4 asks for.
type MessagePackParser struct {
	buf       *buffer.Buffer
	pending   []byte // region returned by the most recent PrepareBuffer
	parsedLen int    // length of the next complete message, once found
}

// NewMessagePackParser constructs a parser with an empty buffer.
func NewMessagePackParser() *MessagePackParser {
	return &MessagePackParser{buf: buffer.New(0)}
}

func (p *MessagePackParser) PrepareBuffer(n int) ([]byte, error) {
	region, err := p.buf.Grow(n)
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindUnexpectedError, "growing parser buffer", err)
	}
	p.pending = region
	return region, nil
}

func (p *MessagePackParser) Buffer() []byte { return p.pending }

func (p *MessagePackParser) Consumed(k int) {
	p.buf.Commit(k)
	p.pending = nil
}

func (p *MessagePackParser) ParseNext(k int) (bool, error) {
	if k > 0 {
		p.buf.Commit(k)
		p.pending = nil
	}

	rest, err := msgp.Skip(p.buf.Data())
	if err != nil {
		if errors.Is(err, msgp.ErrShortBytes) {
			return false, nil
		}
		return false, mprpcerr.Wrap(mprpcerr.KindParseError, "malformed MessagePack value", err)
	}
	p.parsedLen = p.buf.Len() - len(rest)
	return true, nil
}

// Get returns a snapshot of the next fully parsed message and consumes it
// from the buffer. Calling Get without a prior ParseNext==true returns an
// error.
func (p *MessagePackParser) Get() ([]byte, error) {
	if p.parsedLen == 0 {
		return nil, mprpcerr.New(mprpcerr.KindUnexpectedError, "Get called with no message parsed")
	}
	msg := append([]byte(nil), p.buf.Data()[:p.parsedLen]...)
	p.buf.Consume(p.parsedLen)
	p.parsedLen = 0
	return msg, nil
}
