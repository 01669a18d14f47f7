package buffer

// SharedBinary is an immutable, reference-counted byte blob. It's the only
// shared-ownership container in the core data plane: codecs hand one out
// from Compress, and the session write loop and UDP peers write its bytes
// to the socket without copying.
//
// Go's garbage collector already manages the backing array's lifetime, so
// SharedBinary doesn't need an atomic refcount to free anything; what it
// contributes is the *contract* from spec §4.2 — construction copies,
// clone is O(1), equality is byte-equality — so callers can treat a
// SharedBinary as a value type that is safe to alias across goroutines
// without the aliasing ever being observed as a mutation.
type SharedBinary struct {
	b []byte
}

// NewSharedBinary copies src into a new immutable blob.
func NewSharedBinary(src []byte) SharedBinary {
	cp := make([]byte, len(src))
	copy(cp, src)
	return SharedBinary{b: cp}
}

// NewSharedBinaryFromOwned wraps a byte slice the caller guarantees it will
// never mutate again, skipping the copy NewSharedBinary performs. Used by
// codecs that just finished encoding into a freshly allocated slice.
func NewSharedBinaryFromOwned(owned []byte) SharedBinary {
	return SharedBinary{b: owned}
}

// Bytes returns the underlying bytes. The caller must not mutate them.
func (s SharedBinary) Bytes() []byte { return s.b }

// Len returns the blob length.
func (s SharedBinary) Len() int { return len(s.b) }

// Clone returns a SharedBinary aliasing the same backing array; O(1)
// because the array is never mutated in place.
func (s SharedBinary) Clone() SharedBinary { return s }

// Equal reports byte-equality with other.
func (s SharedBinary) Equal(other SharedBinary) bool {
	if len(s.b) != len(other.b) {
		return false
	}
	for i := range s.b {
		if s.b[i] != other.b[i] {
			return false
		}
	}
	return true
}
