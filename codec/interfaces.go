// Package codec implements spec §4.3/§4.4: the non-streaming codec used by
// UDP (whole datagram in, whole datagram out), the streaming codec used by
// TCP (byte-granular feed for compression output and parse input), and the
// MessagePack streaming parser both codecs build on.
//
// Two concrete implementations are provided: identity (pass-through) and
// zstd, backed by github.com/klauspost/compress/zstd.
package codec

import "github.com/nishisan-dev/mprpc/buffer"

// NonStreamingCodec is used where each transport unit already is a full
// message (UDP datagrams).
type NonStreamingCodec interface {
	// Compress encodes one complete message.
	Compress(message []byte) (buffer.SharedBinary, error)
	// Decompress decodes one complete transport unit back to MessagePack
	// bytes ready for wire.Parse.
	Decompress(data []byte) ([]byte, error)
}

// StreamCompressor is the write-side half of a streaming codec (spec §4.3).
// Each Compress call ends a self-contained compressed frame so the
// receiving StreamParser can resynchronize on message boundaries even if
// the transport delivers bytes in arbitrary chunks.
type StreamCompressor interface {
	// Init resets the compressor to start a new session.
	Init()
	// Compress encodes one complete message, ending the frame.
	Compress(message []byte) (buffer.SharedBinary, error)
}

// StreamParser is the read-side half of a streaming codec (spec §4.3/§4.4).
// It accepts bytes incrementally — from a socket read, in arbitrary chunk
// sizes — and produces zero or more fully decoded MessagePack messages.
//
// Protocol (spec §4.4): PrepareBuffer(n) reserves room for n more bytes and
// returns a writable view at the current write offset; the caller fills up
// to n bytes of it and then calls either Consumed(k) (record without
// attempting to parse) or ParseNext(k) (record and attempt to parse).
// ParseNext returns true exactly when Get() has a message ready; on false,
// all state is preserved for the next call. Two complete messages
// delivered in one chunk: the first ParseNext/Get pair returns message A,
// and the caller must call ParseNext(0) again (no new bytes) before the
// second Get() call will see message B.
type StreamParser interface {
	// PrepareBuffer ensures room for n more bytes and returns the writable
	// region to fill.
	PrepareBuffer(n int) ([]byte, error)
	// Buffer returns the region most recently returned by PrepareBuffer.
	Buffer() []byte
	// Consumed records k bytes as received without attempting to parse.
	Consumed(k int)
	// ParseNext records k new bytes (0 is valid: "try what's buffered") and
	// attempts to parse one message. Returns true iff Get() now has a
	// message ready.
	ParseNext(k int) (bool, error)
	// Get returns the next fully parsed message and advances past it.
	// Only valid to call after ParseNext returned true.
	Get() ([]byte, error)
}
