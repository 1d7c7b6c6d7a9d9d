package transport

import (
	"context"
	"net"
	"strconv"

	pcerr "peerchat/internal/errors"
)

// Listen binds a TCP listener on every interface at port.  Port 0 asks
// the kernel for a free port; read it back from the listener's address.
func Listen(ctx context.Context, port int) (net.Listener, error) {
	addr := ":" + strconv.Itoa(port)
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, pcerr.Wrap("listen", addr, err)
	}
	return ln, nil
}

// AcceptOne blocks until one peer connects.  Cancelling ctx closes ln
// to abort the wait, so a listener is never usable after a cancelled
// AcceptOne.  The caller decides when to close ln otherwise.
func AcceptOne(ctx context.Context, ln net.Listener) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() { ln.Close() }) //nolint:errcheck
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, pcerr.Wrap("accept", ln.Addr().String(), err)
	}
	return conn, nil
}
