// Package capability defines what happens over an established
// connection.  A Capability operates on a Session rather than a raw
// net.Conn, which keeps it testable and independent of how the stream
// was obtained (host or connect, TCP, jump host or WebSocket).
package capability

import (
	"context"

	"peerchat/internal/session"
)

// Capability drives a connected session until it ends.  The only
// implementation is Chat.
type Capability interface {
	// Handle runs against sess and returns once the session is over
	// and torn down.  Cancelling ctx ends the session early.
	Handle(ctx context.Context, sess *session.Session) error
}
