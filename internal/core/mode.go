// Package core is the orchestration layer.  It composes transports,
// channels and the chat capability into the two roles a peer can take
// and provides a builder that selects the role from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  channel  →  session  →  capability  →  core  →  cmd (CLI)
package core

import (
	"context"
	"net"

	"peerchat/internal/capability"
	"peerchat/internal/channel"
	"peerchat/internal/console"
	"peerchat/internal/metrics"
	"peerchat/internal/session"
	"peerchat/util"
)

// Mode is one complete role (host or connect).  It owns the lifecycle
// from establishing the stream to teardown.
type Mode interface {
	Run(ctx context.Context) error
}

// Peer holds what both roles need once a stream exists.
type Peer struct {
	Name       string
	Console    *console.Console
	Logger     *util.Logger
	Metrics    *metrics.Collector
	Capability capability.Capability

	// Tagged selects length-prefixed frames instead of text lines.
	// Both peers must agree.
	Tagged bool
}

func (p *Peer) newSession(ctx context.Context) *session.Session {
	return session.New(ctx, p.Name, p.Console, p.Logger, p.Metrics)
}

// serve binds conn to sess and runs the capability until the chat is
// over.  The capability tears the session down.
func (p *Peer) serve(ctx context.Context, sess *session.Session, conn net.Conn) error {
	sess.Attach(conn, channel.New(conn, p.Tagged))
	p.Logger.Verbose("chatting with %s", conn.RemoteAddr())

	c := p.Capability
	if c == nil {
		c = &capability.Chat{}
	}
	return c.Handle(ctx, sess)
}
