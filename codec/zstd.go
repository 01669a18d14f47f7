package codec

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/nishisan-dev/mprpc/buffer"
	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// zstdLevel maps spec §6's library-defined compression-level range onto
// klauspost/compress/zstd's four preset speed levels. The library doesn't
// expose the 1-22 integer scale libzstd does; 1-4 is its native range, and
// the default (3) lines up with spec §6's stated default.
func zstdLevel(level int) (zstd.EncoderLevel, error) {
	switch level {
	case 1:
		return zstd.SpeedFastest, nil
	case 2:
		return zstd.SpeedDefault, nil
	case 3:
		return zstd.SpeedBetterCompression, nil
	case 4:
		return zstd.SpeedBestCompression, nil
	default:
		return 0, mprpcerr.New(mprpcerr.KindInvalidConfigValue,
			"zstd_compression_level must be in [1,4]")
	}
}

func newZstdEncoder(level int) (*zstd.Encoder, error) {
	lvl, err := zstdLevel(level)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(lvl))
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindUnexpectedError, "constructing zstd encoder", err)
	}
	return enc, nil
}

// ZstdCodec is the non-streaming zstd NonStreamingCodec, used for UDP where
// each datagram is compressed and decompressed as one independent unit.
type ZstdCodec struct {
	enc *zstd.Encoder
}

// NewZstdCodec builds a ZstdCodec at the given compression level.
func NewZstdCodec(level int) (*ZstdCodec, error) {
	enc, err := newZstdEncoder(level)
	if err != nil {
		return nil, err
	}
	return &ZstdCodec{enc: enc}, nil
}

func (c *ZstdCodec) Compress(message []byte) (buffer.SharedBinary, error) {
	out := c.enc.EncodeAll(message, nil)
	return buffer.NewSharedBinaryFromOwned(out), nil
}

func (c *ZstdCodec) Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindUnexpectedError, "constructing zstd decoder", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindInvalidMessage, "zstd decompress failed", err)
	}
	return out, nil
}

// ZstdStreamCompressor is the TCP StreamCompressor: each Compress call ends
// the zstd frame (klauspost's EncodeAll always produces a self-contained
// frame), matching the C++ original's ZSTD_e_end-per-message behavior so
// the receiver can resynchronize on message boundaries.
type ZstdStreamCompressor struct {
	enc   *zstd.Encoder
	level int
}

// NewZstdStreamCompressor builds a ZstdStreamCompressor at the given level.
func NewZstdStreamCompressor(level int) (*ZstdStreamCompressor, error) {
	enc, err := newZstdEncoder(level)
	if err != nil {
		return nil, err
	}
	return &ZstdStreamCompressor{enc: enc, level: level}, nil
}

func (c *ZstdStreamCompressor) Init() {}

func (c *ZstdStreamCompressor) Compress(message []byte) (buffer.SharedBinary, error) {
	out := c.enc.EncodeAll(message, nil)
	return buffer.NewSharedBinaryFromOwned(out), nil
}

// ZstdStreamParser is the TCP StreamParser: it accumulates raw compressed
// bytes, and on each ParseNext attempts a full decode of everything
// buffered so far. A successful decode means the buffered bytes are exactly
// one or more complete zstd frames (each corresponding to one compressed
// message, per ZstdStreamCompressor's one-frame-per-call contract); the
// decoded bytes are handed to the inner MessagePackParser, which then
// frames the (possibly several) decoded messages one at a time through
// ParseNext/Get exactly as the identity codec's parser does.
//
// A decode that hits EOF mid-frame (a trailing, not-yet-fully-received
// frame) is the "not enough bytes yet" case: nothing is fed downstream and
// the raw buffer is preserved untouched for the next call to retry against.
type ZstdStreamParser struct {
	raw     *buffer.Buffer
	pending []byte
	dec     *zstd.Decoder
	inner   *MessagePackParser
}

// NewZstdStreamParser builds a ZstdStreamParser.
func NewZstdStreamParser() (*ZstdStreamParser, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindUnexpectedError, "constructing zstd decoder", err)
	}
	return &ZstdStreamParser{
		raw:   buffer.New(0),
		dec:   dec,
		inner: NewMessagePackParser(),
	}, nil
}

func (p *ZstdStreamParser) PrepareBuffer(n int) ([]byte, error) {
	region, err := p.raw.Grow(n)
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindUnexpectedError, "growing zstd parser buffer", err)
	}
	p.pending = region
	return region, nil
}

func (p *ZstdStreamParser) Buffer() []byte { return p.pending }

func (p *ZstdStreamParser) Consumed(k int) {
	p.raw.Commit(k)
	p.pending = nil
}

func (p *ZstdStreamParser) ParseNext(k int) (bool, error) {
	if k > 0 {
		p.raw.Commit(k)
		p.pending = nil
	}

	out, complete, err := p.tryDecode()
	if err != nil {
		return false, err
	}
	if complete && len(out) > 0 {
		region, err := p.inner.PrepareBuffer(len(out))
		if err != nil {
			return false, err
		}
		copy(region, out)
		p.inner.Consumed(len(out))
		p.raw.Reset()
	}
	return p.inner.ParseNext(0)
}

func (p *ZstdStreamParser) Get() ([]byte, error) {
	return p.inner.Get()
}

// tryDecode attempts to decode every complete zstd frame currently buffered
// in p.raw. complete is false (with a nil error) when the buffered bytes
// end mid-frame; the caller must wait for more bytes and retry.
func (p *ZstdStreamParser) tryDecode() (out []byte, complete bool, err error) {
	if p.raw.Len() == 0 {
		return nil, true, nil
	}
	if err := p.dec.Reset(bytes.NewReader(p.raw.Data())); err != nil {
		return nil, false, mprpcerr.Wrap(mprpcerr.KindUnexpectedError, "resetting zstd decoder", err)
	}
	decoded, readErr := io.ReadAll(p.dec)
	if readErr != nil {
		if errors.Is(readErr, io.ErrUnexpectedEOF) || errors.Is(readErr, io.EOF) {
			return nil, false, nil
		}
		return nil, false, mprpcerr.Wrap(mprpcerr.KindInvalidMessage, "zstd stream decode failed", readErr)
	}
	return decoded, true, nil
}
