package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer_GrowCommit(t *testing.T) {
	b := New(0)
	dst, err := b.Grow(5)
	require.NoError(t, err)
	copy(dst, []byte("hello"))
	b.Commit(5)
	require.Equal(t, []byte("hello"), b.Data())
	require.Equal(t, 5, b.Len())
}

func TestBuffer_ConsumePartial(t *testing.T) {
	b := New(0)
	dst, _ := b.Grow(10)
	copy(dst, []byte("0123456789"))
	b.Commit(10)

	old := append([]byte(nil), b.Data()...)
	b.Consume(3)

	require.Equal(t, 7, b.Len())
	require.Equal(t, old[3:], b.Data())
}

func TestBuffer_ConsumeAll(t *testing.T) {
	b := New(0)
	dst, _ := b.Grow(4)
	copy(dst, []byte("abcd"))
	b.Commit(4)

	b.Consume(100)
	require.Equal(t, 0, b.Len())
}

func TestBuffer_GeometricGrowth(t *testing.T) {
	b := New(0)
	require.Equal(t, initialCapacity, b.Cap())

	_, err := b.Grow(initialCapacity + 1)
	require.NoError(t, err)
	require.Equal(t, initialCapacity*2, b.Cap())
}

func TestBuffer_MaxSize(t *testing.T) {
	b := New(0)
	b.SetMaxSize(2048)

	_, err := b.Grow(2048)
	require.NoError(t, err)
	b.Commit(2048)

	_, err = b.Grow(1)
	require.ErrorIs(t, err, ErrMaxSizeExceeded)
}

func TestBuffer_ResizeNeverShrinks(t *testing.T) {
	b := New(0)
	require.NoError(t, b.Resize(100))
	require.Equal(t, 100, b.Len())

	// Resize to a smaller value is a no-op, not a shrink.
	require.NoError(t, b.Resize(10))
	require.Equal(t, 100, b.Len())
}

func TestSharedBinary_CloneIsEqual(t *testing.T) {
	s := NewSharedBinary([]byte("payload"))
	clone := s.Clone()
	require.True(t, s.Equal(clone))
	require.Equal(t, s.Bytes(), clone.Bytes())
}

func TestSharedBinary_CopiesOnConstruction(t *testing.T) {
	src := []byte("mutate-me")
	s := NewSharedBinary(src)
	src[0] = 'X'
	require.Equal(t, byte('m'), s.Bytes()[0])
}
