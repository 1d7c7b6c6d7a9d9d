// Package transport establishes the single byte stream a chat runs
// over.  The host role listens and accepts exactly one peer; the
// connect role dials through a [Dialer], directly or via an SSH jump
// host.  Either stream may be wrapped in a WebSocket.  What travels
// over the stream is the channel layer's job.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound streams.  Implementations include a plain TCP
// dialer, an SSH jump-host dialer and a WebSocket dialer layered over
// either.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}
