package wire

import "github.com/tinylib/msgp/msgp"

// EncodeRequest builds the wire bytes for [0, msgid, method, params].
// params must already be a complete MessagePack-encoded array (see
// EncodeParams).
func EncodeRequest(msgid uint32, method string, params []byte) []byte {
	b := msgp.AppendArrayHeader(nil, 4)
	b = msgp.AppendUint64(b, uint64(KindRequest))
	b = msgp.AppendUint32(b, msgid)
	b = msgp.AppendString(b, method)
	b = append(b, params...)
	return b
}

// EncodeNotification builds the wire bytes for [2, method, params].
func EncodeNotification(method string, params []byte) []byte {
	b := msgp.AppendArrayHeader(nil, 3)
	b = msgp.AppendUint64(b, uint64(KindNotification))
	b = msgp.AppendString(b, method)
	b = append(b, params...)
	return b
}

// EncodeResponse builds the wire bytes for [1, msgid, errVal, result].
// errVal and result must already be complete MessagePack-encoded values;
// pass msgp.AppendNil(nil) for either to mean "nil".
func EncodeResponse(msgid uint32, errVal, result []byte) []byte {
	b := msgp.AppendArrayHeader(nil, 4)
	b = msgp.AppendUint64(b, uint64(KindResponse))
	b = msgp.AppendUint32(b, msgid)
	b = append(b, errVal...)
	b = append(b, result...)
	return b
}

// EncodeParams appends each value in args to a new MessagePack array using
// msgp.AppendIntf, which handles the dynamic Go types method parameters
// naturally take (string, int64, float64, bool, []byte, nil, and nested
// slices/maps of the same) without requiring generated (de)serializers.
func EncodeParams(args ...interface{}) ([]byte, error) {
	b := msgp.AppendArrayHeader(nil, uint32(len(args)))
	var err error
	for _, a := range args {
		b, err = msgp.AppendIntf(b, a)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// EncodeValue encodes a single arbitrary Go value (a method result, or an
// error payload) as one complete MessagePack value.
func EncodeValue(v interface{}) ([]byte, error) {
	return msgp.AppendIntf(nil, v)
}

// Nil is the encoded form of the MessagePack nil value, used for a
// void-returning method's result or a successful response's error slot.
func Nil() []byte { return msgp.AppendNil(nil) }

// DecodeParams decodes a MessagePack-encoded params array (as produced by
// EncodeParams, or carried on a parsed Message) into a slice of dynamically
// typed Go values, one per array element.
func DecodeParams(params []byte) ([]interface{}, error) {
	sz, rest, err := msgp.ReadArrayHeaderBytes(params)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, sz)
	for i := uint32(0); i < sz; i++ {
		var v interface{}
		v, rest, err = msgp.ReadIntfBytes(rest)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeValue decodes a single MessagePack-encoded value (a response's
// result or error slot) into a dynamically typed Go value.
func DecodeValue(raw []byte) (interface{}, error) {
	if msgp.IsNil(raw) {
		return nil, nil
	}
	v, _, err := msgp.ReadIntfBytes(raw)
	return v, err
}
