// Package wire implements the MessagePack-RPC message schema from spec §3:
// encoding and validating the three message kinds (request, response,
// notification) as MessagePack arrays, and allocating client message IDs.
//
// Encoding and decoding of the variable-typed fields (params, result,
// error) is built on github.com/tinylib/msgp/msgp's byte-slice primitives
// (AppendXxx / ReadXxxBytes). msgp is normally driven by generated
// (de)serializers, but its raw functions are a standalone, dependency-light
// MessagePack codec in their own right — including the exact "not enough
// bytes yet" signal (msgp.ErrShortBytes) the streaming parser in the codec
// package needs to implement spec §4.4's incremental-decode contract.
package wire

import (
	"errors"
	"fmt"

	"github.com/tinylib/msgp/msgp"

	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// Kind tags the first element of the wire array per spec §3.
type Kind byte

const (
	KindRequest      Kind = 0
	KindResponse     Kind = 1
	KindNotification Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// Message is an immutable handle over one fully decoded, self-delimiting
// MessagePack-RPC message. It keeps the raw encoded bytes for diagnostics
// and pass-through alongside the decoded, kind-specific accessors.
//
// The variable-typed fields (Params, Result, Err) are kept as raw
// MessagePack bytes rather than eagerly decoded to interface{}: a request's
// params are only meaningfully typed once the dispatcher knows which
// method's signature to unpack them against.
type Message struct {
	kind   Kind
	raw    []byte
	msgid  uint32
	method string
	params []byte
	errVal []byte
	result []byte
}

// Kind reports the message's kind.
func (m *Message) Kind() Kind { return m.kind }

// Raw returns the original encoded bytes, for diagnostics and pass-through.
func (m *Message) Raw() []byte { return m.raw }

// MsgID returns the message ID. Valid for Request and Response.
func (m *Message) MsgID() uint32 { return m.msgid }

// Method returns the method name. Valid for Request and Notification.
func (m *Message) Method() string { return m.method }

// Params returns the raw MessagePack-encoded params array. Valid for
// Request and Notification.
func (m *Message) Params() []byte { return m.params }

// Err returns the raw MessagePack-encoded error value. Valid for Response;
// nil (msgpack nil) means the request succeeded.
func (m *Message) Err() []byte { return m.errVal }

// Result returns the raw MessagePack-encoded result value. Valid for
// Response.
func (m *Message) Result() []byte { return m.result }

// Parse decodes and validates raw as a Message. Kind byte, array length per
// kind, and field types are all checked; any mismatch yields an
// mprpcerr.Error of KindInvalidMessage.
func Parse(raw []byte) (*Message, error) {
	sz, rest, err := msgp.ReadArrayHeaderBytes(raw)
	if err != nil {
		return nil, invalidMessage("reading top-level array header", err)
	}
	if sz != 3 && sz != 4 {
		return nil, invalidMessage(fmt.Sprintf("array length %d is neither 3 nor 4", sz), nil)
	}

	kindVal, rest, err := msgp.ReadUint64Bytes(rest)
	if err != nil {
		return nil, invalidMessage("reading kind tag", err)
	}
	kind := Kind(kindVal)

	m := &Message{kind: kind, raw: append([]byte(nil), raw...)}

	switch kind {
	case KindRequest:
		if sz != 4 {
			return nil, invalidMessage("request must have 4 elements", nil)
		}
		msgid, r, err := msgp.ReadUint32Bytes(rest)
		if err != nil {
			return nil, invalidMessage("reading request msgid", err)
		}
		method, r, err := msgp.ReadStringBytes(r)
		if err != nil {
			return nil, invalidMessage("reading request method", err)
		}
		params, r, err := splitArray(r)
		if err != nil {
			return nil, invalidMessage("reading request params", err)
		}
		if len(r) != 0 {
			return nil, invalidMessage("trailing bytes after request", nil)
		}
		m.msgid, m.method, m.params = msgid, method, params

	case KindResponse:
		if sz != 4 {
			return nil, invalidMessage("response must have 4 elements", nil)
		}
		msgid, r, err := msgp.ReadUint32Bytes(rest)
		if err != nil {
			return nil, invalidMessage("reading response msgid", err)
		}
		errVal, r, err := splitValue(r)
		if err != nil {
			return nil, invalidMessage("reading response error", err)
		}
		result, r, err := splitValue(r)
		if err != nil {
			return nil, invalidMessage("reading response result", err)
		}
		if len(r) != 0 {
			return nil, invalidMessage("trailing bytes after response", nil)
		}
		m.msgid, m.errVal, m.result = msgid, errVal, result

	case KindNotification:
		if sz != 3 {
			return nil, invalidMessage("notification must have 3 elements", nil)
		}
		method, r, err := msgp.ReadStringBytes(rest)
		if err != nil {
			return nil, invalidMessage("reading notification method", err)
		}
		params, r, err := splitArray(r)
		if err != nil {
			return nil, invalidMessage("reading notification params", err)
		}
		if len(r) != 0 {
			return nil, invalidMessage("trailing bytes after notification", nil)
		}
		m.method, m.params = method, params

	default:
		return nil, invalidMessage(fmt.Sprintf("unknown kind tag %d", kindVal), nil)
	}

	return m, nil
}

// splitValue skips exactly one complete MessagePack value in b, returning
// the bytes of that value and the remainder.
func splitValue(b []byte) (value, rest []byte, err error) {
	rest, err = msgp.Skip(b)
	if err != nil {
		return nil, nil, err
	}
	return b[:len(b)-len(rest)], rest, nil
}

// splitArray is splitValue specialized to require the value be an array
// (params are always an array, never a bare scalar).
func splitArray(b []byte) (value, rest []byte, err error) {
	if _, _, err := msgp.ReadArrayHeaderBytes(b); err != nil {
		return nil, nil, err
	}
	return splitValue(b)
}

func invalidMessage(msg string, cause error) error {
	if cause != nil {
		if errors.Is(cause, msgp.ErrShortBytes) {
			return mprpcerr.Wrap(mprpcerr.KindInvalidMessage, msg, cause)
		}
		return mprpcerr.Wrap(mprpcerr.KindInvalidMessage, msg, cause)
	}
	return mprpcerr.New(mprpcerr.KindInvalidMessage, msg)
}
