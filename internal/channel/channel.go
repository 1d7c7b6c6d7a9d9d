// Package channel turns a connected byte stream into a sequence of
// protocol frames.
//
// Two framings exist.  Line framing is the classic wire format: one
// frame per newline-terminated line, control frames told apart by a
// text prefix.  Tagged framing carries an explicit kind per frame and
// is opt-in; both peers must use the same framing.
package channel

import (
	"io"
	"net"

	pcerr "peerchat/internal/errors"
	"peerchat/internal/protocol"
)

// Channel is a framed, full-duplex link to the peer.
//
// Send may be called from several goroutines.  Receive must only be
// called from one goroutine at a time.
type Channel interface {
	// Send writes one frame and flushes it to the stream immediately.
	Send(f protocol.Frame) error

	// Receive blocks until one whole frame is available.  It returns
	// io.EOF once the peer has closed its side cleanly.
	Receive() (protocol.Frame, error)

	// CloseWrite shuts down the sending half when the stream supports it.
	CloseWrite() error

	// CloseRead shuts down the receiving half when the stream supports it.
	CloseRead() error
}

// New returns the channel matching the configured framing.
func New(rw io.ReadWriter, tagged bool) Channel {
	if tagged {
		return NewTagged(rw)
	}
	return NewLine(rw)
}

// ── half-close support ───────────────────────────────────────────────

type writeCloser interface{ CloseWrite() error }
type readCloser interface{ CloseRead() error }

// halves implements CloseWrite/CloseRead for any stream; streams that
// cannot half-close (pipes, SSH channels on the read side) are a no-op.
type halves struct {
	rw   io.ReadWriter
	addr string
}

func newHalves(rw io.ReadWriter) halves {
	h := halves{rw: rw}
	if c, ok := rw.(net.Conn); ok && c.RemoteAddr() != nil {
		h.addr = c.RemoteAddr().String()
	}
	return h
}

func (h halves) CloseWrite() error {
	if wc, ok := h.rw.(writeCloser); ok {
		return pcerr.Wrap("close-write", h.addr, wc.CloseWrite())
	}
	return nil
}

func (h halves) CloseRead() error {
	if rc, ok := h.rw.(readCloser); ok {
		return pcerr.Wrap("close-read", h.addr, rc.CloseRead())
	}
	return nil
}

// readErr keeps a clean EOF recognisable and wraps everything else.
func (h halves) readErr(err error) error {
	if err == io.EOF {
		return io.EOF
	}
	return pcerr.Wrap("read", h.addr, err)
}
