// Package tunnel reaches a chat peer through an SSH jump host.
//
// The jump host only routes the TCP stream: chat frames travel inside
// the SSH connection as far as the gateway and in clear from the
// gateway to the peer.
package tunnel

import (
	"context"
	"net"
)

// Route opens streams to addresses that are only reachable from a
// gateway.
type Route interface {
	// Connect establishes the session with the gateway.
	Connect(ctx context.Context) error

	// Dial opens a stream to address from the gateway.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close ends the gateway session and every stream opened through it.
	Close() error

	// IsAlive reports whether the gateway session is still up.
	IsAlive() bool
}
