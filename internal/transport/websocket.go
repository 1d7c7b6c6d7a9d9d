package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	pcerr "peerchat/internal/errors"
)

// UpgradeServer performs the server half of the WebSocket handshake
// on an accepted stream and returns a byte stream over it.
func UpgradeServer(conn net.Conn) (net.Conn, error) {
	if _, err := ws.Upgrade(conn); err != nil {
		return nil, pcerr.Wrap("upgrade", conn.RemoteAddr().String(), err)
	}
	return newWSConn(conn, conn, ws.StateServerSide), nil
}

// WSDialer performs a WebSocket client handshake over a stream opened
// by Base, so a WebSocket can ride on plain TCP or a jump host alike.
type WSDialer struct {
	Base Dialer
	Path string // request path, "/" when empty
}

// Dial connects to address and upgrades the stream.
func (d *WSDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	path := d.Path
	if path == "" {
		path = "/"
	}
	wd := ws.Dialer{
		NetDial: func(ctx context.Context, _, addr string) (net.Conn, error) {
			return d.Base.Dial(ctx, network, addr)
		},
	}
	conn, br, _, err := wd.Dial(ctx, "ws://"+address+path)
	if err != nil {
		return nil, pcerr.Wrap("upgrade", address, err)
	}

	var r io.Reader = conn
	if br != nil {
		r = br
	}
	return newWSConn(conn, r, ws.StateClientSide), nil
}

// Close releases the base dialer.
func (d *WSDialer) Close() error { return d.Base.Close() }

// ── WebSocket stream ─────────────────────────────────────────────────

// wsConn presents a WebSocket as a plain byte stream.  Each Write is
// sent as one binary message; Read returns message payloads back to
// back.  A close frame from the peer reads as io.EOF.
type wsConn struct {
	net.Conn
	r     io.Reader
	state ws.State

	rmu  sync.Mutex
	rbuf []byte

	wmu       sync.Mutex
	closeSent bool
}

func newWSConn(conn net.Conn, r io.Reader, state ws.State) *wsConn {
	return &wsConn{Conn: conn, r: r, state: state}
}

func (c *wsConn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	for len(c.rbuf) == 0 {
		data, _, err := wsutil.ReadData(struct {
			io.Reader
			io.Writer
		}{c.r, lockedWriter{c}}, c.state)
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				return 0, io.EOF
			}
			return 0, err
		}
		c.rbuf = data
	}

	n := copy(p, c.rbuf)
	c.rbuf = c.rbuf[n:]
	return n, nil
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.closeSent {
		return 0, net.ErrClosed
	}
	if err := wsutil.WriteMessage(c.Conn, c.state, ws.OpBinary, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// CloseWrite sends a normal-closure frame; no data may follow it.
func (c *wsConn) CloseWrite() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.closeSent {
		return nil
	}
	c.closeSent = true
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	return wsutil.WriteMessage(c.Conn, c.state, ws.OpClose, body)
}

// CloseRead half-closes the underlying stream when it supports that.
func (c *wsConn) CloseRead() error {
	if rc, ok := c.Conn.(interface{ CloseRead() error }); ok {
		return rc.CloseRead()
	}
	return nil
}

// lockedWriter serialises control-frame replies written while reading
// with data frames written by Write.
type lockedWriter struct{ c *wsConn }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.wmu.Lock()
	defer w.c.wmu.Unlock()
	return w.c.Conn.Write(p)
}
