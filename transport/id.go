package transport

import (
	"crypto/rand"
	"encoding/hex"
)

// newID generates a short random label for logging, used to identify any
// Peer (TCP session, UDP pseudo-session, or connector) in log output.
func newID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
