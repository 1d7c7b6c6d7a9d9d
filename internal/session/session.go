// Package session holds the live state of one chat run: the local
// identity, the connection and its framed channel, the running latch
// and the peer's display name.
//
// The session owns every resource it is given.  Teardown releases them
// exactly once, however many paths (local quit, peer quit, transport
// error, interrupt) ask for it.
package session

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"peerchat/config"
	"peerchat/internal/channel"
	"peerchat/internal/console"
	pcerr "peerchat/internal/errors"
	"peerchat/internal/metrics"
	"peerchat/util"
)

// Session is the runtime context shared by the inbound and outbound
// directions of a chat.
type Session struct {
	Name    string
	Console *console.Console
	Logger  *util.Logger
	Metrics *metrics.Collector

	ctx    context.Context
	cancel context.CancelFunc

	running  atomic.Bool
	tornDown atomic.Bool
	peerName atomic.Pointer[string]

	mu       sync.Mutex
	listener net.Listener
	conn     net.Conn
	ch       channel.Channel
}

// New creates a running session for the local identity name.  The
// session's context is cancelled by Stop, Teardown or cancellation of
// parent.
func New(parent context.Context, name string, con *console.Console, logger *util.Logger, m *metrics.Collector) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		Name:    name,
		Console: con,
		Logger:  logger,
		Metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.running.Store(true)
	return s
}

// ── Running latch ────────────────────────────────────────────────────

// Running reports whether the session is still live.
func (s *Session) Running() bool { return s.running.Load() }

// Stop clears the running flag.  It reports whether this call was the
// one that cleared it; the flag never becomes true again.
func (s *Session) Stop() bool {
	first := s.running.CompareAndSwap(true, false)
	s.cancel()
	return first
}

// Context is done once the session stops.
func (s *Session) Context() context.Context { return s.ctx }

// ── Peer identity ────────────────────────────────────────────────────

// PeerName returns the name from the latest identity frame, or the
// placeholder if none has arrived.
func (s *Session) PeerName() string {
	if p := s.peerName.Load(); p != nil {
		return *p
	}
	return config.DefaultPeerName
}

// SetPeerName records the name announced by the peer.
func (s *Session) SetPeerName(name string) { s.peerName.Store(&name) }

// ── Resources ────────────────────────────────────────────────────────

// SetListener hands the host-role listening socket to the session so
// that teardown closes it if accept never completes.
func (s *Session) SetListener(ln net.Listener) {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
}

// ReleaseListener closes the listening socket once its single peer has
// been accepted.
func (s *Session) ReleaseListener() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	return pcerr.Wrap("close", ln.Addr().String(), ln.Close())
}

// Attach binds the established stream and its channel to the session.
func (s *Session) Attach(conn net.Conn, ch channel.Channel) {
	s.mu.Lock()
	s.conn = conn
	s.ch = ch
	s.mu.Unlock()
	s.Metrics.ConnectionOpened()
}

// Conn returns the established stream, or nil before connection.
func (s *Session) Conn() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Channel returns the framed channel, or nil before connection.
func (s *Session) Channel() channel.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Connected reports whether a stream has been attached.
func (s *Session) Connected() bool { return s.Conn() != nil }

// ── Teardown ─────────────────────────────────────────────────────────

// Teardown stops the session and releases its resources in order:
// channel write side, channel read side, stream, listener.  Every step
// runs even if an earlier one failed; failures are logged and joined
// into the result.  Errors saying a resource was already closed are
// ignored.  Only the first call does any work.
func (s *Session) Teardown() error {
	if !s.tornDown.CompareAndSwap(false, true) {
		return nil
	}
	s.Stop()

	s.mu.Lock()
	ch, conn, ln := s.ch, s.conn, s.listener
	s.listener = nil
	s.mu.Unlock()

	var errs []error
	step := func(what string, err error) {
		if err == nil || pcerr.IsClosed(err) {
			return
		}
		s.Logger.Warn("Cleanup error (%s): %v", what, err)
		s.Metrics.RecordError(err.Error())
		errs = append(errs, err)
	}

	if ch != nil {
		step("close write", ch.CloseWrite())
		step("close read", ch.CloseRead())
	}
	if conn != nil {
		step("close connection", conn.Close())
		s.Metrics.ConnectionClosed()
	}
	if ln != nil {
		step("close listener", ln.Close())
	}

	s.Logger.Debug("session torn down")
	return pcerr.Join(errs...)
}
