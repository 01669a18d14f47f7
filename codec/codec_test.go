package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, p StreamParser, chunks ...[]byte) [][]byte {
	t.Helper()
	var got [][]byte
	for _, chunk := range chunks {
		off := 0
		for off < len(chunk) {
			n := len(chunk) - off
			region, err := p.PrepareBuffer(n)
			require.NoError(t, err)
			copy(region, chunk[off:off+len(region)])
			off += len(region)

			ok, err := p.ParseNext(len(region))
			require.NoError(t, err)
			for ok {
				msg, err := p.Get()
				require.NoError(t, err)
				got = append(got, msg)
				ok, err = p.ParseNext(0)
				require.NoError(t, err)
			}
		}
	}
	return got
}

func TestIdentityStreamParser_ChunkingInvariance(t *testing.T) {
	messages := [][]byte{
		{0x91, 0x01}, // fixarray(1) containing fixint 1
		{0x92, 0x02, 0x03},
	}
	var whole []byte
	for _, m := range messages {
		whole = append(whole, m...)
	}

	// Deliver byte-by-byte.
	p := NewIdentityStreamParser()
	var chunks [][]byte
	for _, b := range whole {
		chunks = append(chunks, []byte{b})
	}
	got := feed(t, p, chunks...)
	require.Len(t, got, 2)
	require.Equal(t, messages[0], got[0])
	require.Equal(t, messages[1], got[1])
}

func TestIdentityStreamParser_TwoMessagesOneChunk(t *testing.T) {
	whole := []byte{0x91, 0x01, 0x92, 0x02, 0x03}
	p := NewIdentityStreamParser()
	got := feed(t, p, whole)
	require.Len(t, got, 2)
}

func TestZstdCodec_NonStreamingRoundTrip(t *testing.T) {
	c, err := NewZstdCodec(DefaultZstdLevel)
	require.NoError(t, err)

	msg := []byte("the quick brown fox jumps over the lazy dog")
	compressed, err := c.Compress(msg)
	require.NoError(t, err)

	out, err := c.Decompress(compressed.Bytes())
	require.NoError(t, err)
	require.Equal(t, msg, out)
}

func TestZstdStreamParser_RoundTripAcrossMultipleMessages(t *testing.T) {
	comp, err := NewZstdStreamCompressor(DefaultZstdLevel)
	require.NoError(t, err)
	parser, err := NewZstdStreamParser()
	require.NoError(t, err)

	inputs := [][]byte{
		{0x91, 0x01},
		{0x92, 0x02, 0x03},
		[]byte("\x91\xa3abc"), // fixarray(1) containing fixstr "abc"
	}

	var wire []byte
	for _, msg := range inputs {
		frame, err := comp.Compress(msg)
		require.NoError(t, err)
		wire = append(wire, frame.Bytes()...)
	}

	got := feed(t, parser, wire)
	require.Len(t, got, len(inputs))
	for i, in := range inputs {
		require.Equal(t, in, got[i])
	}
}

func TestZstdStreamParser_PartialFrameWaits(t *testing.T) {
	comp, err := NewZstdStreamCompressor(DefaultZstdLevel)
	require.NoError(t, err)
	parser, err := NewZstdStreamParser()
	require.NoError(t, err)

	frame, err := comp.Compress([]byte("\xa5hello")) // fixstr "hello"
	require.NoError(t, err)
	data := frame.Bytes()
	require.True(t, len(data) > 1)

	region, err := parser.PrepareBuffer(len(data) - 1)
	require.NoError(t, err)
	copy(region, data[:len(data)-1])
	ok, err := parser.ParseNext(len(region))
	require.NoError(t, err)
	require.False(t, ok)

	region, err = parser.PrepareBuffer(1)
	require.NoError(t, err)
	copy(region, data[len(data)-1:])
	ok, err = parser.ParseNext(1)
	require.NoError(t, err)
	require.True(t, ok)

	msg, err := parser.Get()
	require.NoError(t, err)
	require.Equal(t, []byte("\xa5hello"), msg)
}
