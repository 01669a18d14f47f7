package codec

import "github.com/nishisan-dev/mprpc/buffer"

// IdentityCodec is the pass-through NonStreamingCodec used for UDP when no
// compression is configured.
type IdentityCodec struct{}

func (IdentityCodec) Compress(message []byte) (buffer.SharedBinary, error) {
	return buffer.NewSharedBinary(message), nil
}

func (IdentityCodec) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

// IdentityStreamCompressor is the pass-through StreamCompressor used for TCP
// when no compression is configured: each message is its own "frame"
// because MessagePack values are already self-delimiting.
type IdentityStreamCompressor struct{}

func (*IdentityStreamCompressor) Init() {}

func (*IdentityStreamCompressor) Compress(message []byte) (buffer.SharedBinary, error) {
	return buffer.NewSharedBinary(message), nil
}

// IdentityStreamParser delegates directly to the MessagePack streaming
// parser: with no compression stage, socket bytes ARE MessagePack bytes.
type IdentityStreamParser struct {
	*MessagePackParser
}

// NewIdentityStreamParser constructs an identity StreamParser.
func NewIdentityStreamParser() *IdentityStreamParser {
	return &IdentityStreamParser{MessagePackParser: NewMessagePackParser()}
}
