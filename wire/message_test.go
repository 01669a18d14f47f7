package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nishisan-dev/mprpc/mprpcerr"
)

func TestRequest_RoundTrip(t *testing.T) {
	params, err := EncodeParams("abc")
	require.NoError(t, err)
	raw := EncodeRequest(7, "echo", params)

	msg, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, KindRequest, msg.Kind())
	require.Equal(t, uint32(7), msg.MsgID())
	require.Equal(t, "echo", msg.Method())

	args, err := DecodeParams(msg.Params())
	require.NoError(t, err)
	require.Equal(t, []interface{}{"abc"}, args)
}

func TestNotification_RoundTrip(t *testing.T) {
	params, _ := EncodeParams()
	raw := EncodeNotification("count", params)

	msg, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, KindNotification, msg.Kind())
	require.Equal(t, "count", msg.Method())

	args, err := DecodeParams(msg.Params())
	require.NoError(t, err)
	require.Empty(t, args)
}

func TestResponse_RoundTrip_Success(t *testing.T) {
	result, _ := EncodeValue("abc")
	raw := EncodeResponse(7, Nil(), result)

	msg, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, KindResponse, msg.Kind())
	require.Equal(t, uint32(7), msg.MsgID())

	errVal, err := DecodeValue(msg.Err())
	require.NoError(t, err)
	require.Nil(t, errVal)

	result2, err := DecodeValue(msg.Result())
	require.NoError(t, err)
	require.Equal(t, "abc", result2)
}

func TestResponse_RoundTrip_Error(t *testing.T) {
	errVal, _ := EncodeValue("method not found: missing")
	raw := EncodeResponse(9, errVal, Nil())

	msg, err := Parse(raw)
	require.NoError(t, err)

	decodedErr, err := DecodeValue(msg.Err())
	require.NoError(t, err)
	require.Equal(t, "method not found: missing", decodedErr)
}

func TestParse_InvalidKind(t *testing.T) {
	raw := EncodeRequest(0, "x", Nil())
	raw[1] = 9 // corrupt the kind tag (second byte: array header, then kind int)

	_, err := Parse(raw)
	require.Error(t, err)
	require.Equal(t, mprpcerr.KindInvalidMessage, mprpcerr.KindOf(err))
}

func TestParse_WrongArrayLength(t *testing.T) {
	// A response (kind 1) encoded with only 3 elements is invalid: it must
	// carry msgid, error and result.
	raw := EncodeNotification("echo", Nil())
	raw[1] = byte(KindResponse)
	_, err := Parse(raw)
	require.Error(t, err)
	require.Equal(t, mprpcerr.KindInvalidMessage, mprpcerr.KindOf(err))
}

func TestMsgIDCounter_MonotonicAndWraps(t *testing.T) {
	var c MsgIDCounter
	require.Equal(t, uint32(0), c.Next())
	require.Equal(t, uint32(1), c.Next())
	require.Equal(t, uint32(2), c.Next())

	c.next.Store(^uint32(0))
	require.Equal(t, ^uint32(0), c.Next())
	require.Equal(t, uint32(0), c.Next())
}
