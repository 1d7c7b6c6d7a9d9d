package capability

import (
	"context"
	"errors"
	"io"
	"strings"

	"peerchat/internal/command"
	pcerr "peerchat/internal/errors"
	"peerchat/internal/protocol"
	"peerchat/internal/session"
	"peerchat/util"
)

// Chat is the two-party conversation: one identity frame on start,
// then received frames are rendered while operator lines are sent,
// until either side quits or the stream fails.
type Chat struct {
	// LocalIP reports this machine's address for /info.  Defaults to
	// util.LocalIP.
	LocalIP func() string
}

var _ Capability = (*Chat)(nil)

// Handle announces the local identity, then runs the inbound direction
// in a goroutine and the outbound direction on the caller's goroutine.
// It tears the session down before returning.
func (c *Chat) Handle(ctx context.Context, sess *session.Session) error {
	if sess.Channel() == nil {
		return pcerr.ErrNotConnected
	}

	if err := c.send(sess, protocol.Identity(sess.Name)); err != nil {
		sess.Teardown() //nolint:errcheck
		return err
	}
	c.header(sess)

	inboundDone := make(chan struct{})
	go func() {
		defer close(inboundDone)
		c.inbound(sess)
	}()

	err := c.outbound(ctx, sess)

	if terr := sess.Teardown(); terr != nil {
		sess.Logger.Debug("teardown: %v", terr)
	}
	<-inboundDone

	sess.Logger.Verbose("chat with %s ended", sess.PeerName())
	return err
}

// ── inbound ──────────────────────────────────────────────────────────

// inbound renders frames from the peer until a quit frame, end of
// stream, a read error, or the local side stopping.  Errors that
// arrive after the local side stopped are expected and not reported.
func (c *Chat) inbound(sess *session.Session) {
	defer sess.Stop()
	ch := sess.Channel()

	for sess.Running() {
		f, err := ch.Receive()
		if !sess.Running() {
			return
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				sess.Console.Notice(sess.PeerName() + " disconnected")
			} else {
				sess.Logger.Error("Disconnected: %v", err)
				sess.Metrics.RecordError(err.Error())
			}
			return
		}
		sess.Metrics.FrameReceived(len(f.Text))

		switch f.Kind {
		case protocol.KindIdentity:
			sess.SetPeerName(f.Text)
			sess.Console.Notice(f.Text + " joined the chat")
		case protocol.KindQuit:
			sess.Console.Notice(sess.PeerName() + " left the chat")
			return
		default:
			sess.Console.Message(sess.PeerName(), f.Text)
		}
	}
}

// ── outbound ─────────────────────────────────────────────────────────

// outbound reads operator lines until /quit, end of input, an
// interrupt, or the session stopping.  End of input and an interrupt
// leave the chat the same way /quit does.
func (c *Chat) outbound(ctx context.Context, sess *session.Session) error {
	for sess.Running() {
		line, err := sess.Console.ReadLine(sess.Context())
		if err != nil {
			switch {
			case !sess.Running():
				return nil
			case errors.Is(err, io.EOF), ctx.Err() != nil:
				return c.quit(sess)
			default:
				sess.Stop()
				return err
			}
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if cmd, ok := command.Parse(line); ok {
			switch cmd {
			case command.Quit:
				return c.quit(sess)
			case command.Help:
				c.help(sess)
			case command.Info:
				c.info(sess)
			}
			continue
		}

		if err := c.send(sess, protocol.Chat(line)); err != nil {
			sess.Stop()
			return err
		}
		sess.Console.Echo(line)
	}
	return nil
}

// quit sends the single quit frame of the session and stops it.
func (c *Chat) quit(sess *session.Session) error {
	err := c.send(sess, protocol.Quit(sess.Name))
	sess.Console.Println("Goodbye!")
	sess.Stop()
	return err
}

// send refuses to write once the session has stopped, so nothing can
// follow the quit frame.
func (c *Chat) send(sess *session.Session, f protocol.Frame) error {
	if !sess.Running() {
		return pcerr.ErrSessionStopped
	}
	if err := sess.Channel().Send(f); err != nil {
		sess.Metrics.RecordError(err.Error())
		return err
	}
	sess.Metrics.FrameSent(len(f.Text))
	sess.Logger.Debug("sent %s", f.Kind)
	return nil
}

func (c *Chat) localIP() string {
	if c.LocalIP != nil {
		return c.LocalIP()
	}
	return util.LocalIP()
}
