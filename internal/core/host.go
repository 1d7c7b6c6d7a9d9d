package core

import (
	"context"
	"net"

	"peerchat/internal/session"
	"peerchat/internal/transport"
	"peerchat/util"
)

// HostMode listens on a port, accepts exactly one peer and chats with
// it.  The listening socket is closed as soon as the peer is accepted.
type HostMode struct {
	Peer
	Port      int  // 0 picks a free port
	WebSocket bool // expect a WebSocket handshake from the peer

	// LocalIP reports the address shown to the operator.  Defaults to
	// util.LocalIP.
	LocalIP func() string

	// Listen opens the listening socket.  Defaults to transport.Listen.
	Listen func(ctx context.Context, port int) (net.Listener, error)
}

// Run waits for the peer and hands the connection to the capability.
// An interrupt while waiting ends Run without error.
func (m *HostMode) Run(ctx context.Context) error {
	listen := m.Listen
	if listen == nil {
		listen = transport.Listen
	}
	ln, err := listen(ctx, m.Port)
	if err != nil {
		return err
	}

	sess := m.newSession(ctx)
	sess.SetListener(ln)

	_, port := util.SplitAddr(ln.Addr())
	m.Console.Printf("Waiting for connection on port %d...", port)
	m.Console.Printf("Your IP: %s", m.localIP())

	conn, err := transport.AcceptOne(sess.Context(), ln)
	if err != nil {
		if ctx.Err() != nil {
			sess.Teardown() //nolint:errcheck
			m.Logger.Verbose("stopped waiting for a peer")
			return nil
		}
		return m.fail(sess, err)
	}
	if err := sess.ReleaseListener(); err != nil {
		m.Logger.Warn("Cleanup error (close listener): %v", err)
	}

	if m.WebSocket {
		wc, err := transport.UpgradeServer(conn)
		if err != nil {
			conn.Close() //nolint:errcheck
			return m.fail(sess, err)
		}
		conn = wc
	}

	peerIP, _ := util.SplitAddr(conn.RemoteAddr())
	m.Console.Printf("Connected to: %s", peerIP)

	return m.serve(ctx, sess, conn)
}

func (m *HostMode) fail(sess *session.Session, err error) error {
	m.Metrics.RecordError(err.Error())
	sess.Teardown() //nolint:errcheck
	return err
}

func (m *HostMode) localIP() string {
	if m.LocalIP != nil {
		return m.LocalIP()
	}
	return util.LocalIP()
}
