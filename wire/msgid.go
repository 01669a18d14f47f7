package wire

import "sync/atomic"

// MsgIDCounter allocates client message IDs: a monotonically increasing
// 32-bit counter per client (spec §3 "Message ID"). It wraps naturally on
// overflow; correctness only depends on no two *outstanding* requests
// sharing an id, which the client correlator's pending table enforces by
// retrying on collision.
type MsgIDCounter struct {
	next atomic.Uint32
}

// Next returns the next msgid in sequence.
func (c *MsgIDCounter) Next() uint32 {
	return c.next.Add(1) - 1
}
