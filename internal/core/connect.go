package core

import (
	"context"

	"peerchat/internal/transport"
)

// ConnectMode dials a hosting peer and chats with it.
type ConnectMode struct {
	Peer
	Dialer  transport.Dialer
	Address string
}

// Run dials Address, creates a session, and hands it to the
// capability.  The dialer is closed when Run returns.  An interrupt
// while dialling ends Run without error.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close() //nolint:errcheck

	m.Console.Printf("Connecting to %s...", m.Address)

	conn, err := m.Dialer.Dial(ctx, "tcp", m.Address)
	if err != nil {
		if ctx.Err() != nil {
			m.Logger.Verbose("connect to %s interrupted", m.Address)
			return nil
		}
		m.Metrics.RecordError(err.Error())
		return err
	}
	m.Console.Println("Connected successfully!")

	return m.serve(ctx, m.newSession(ctx), conn)
}
