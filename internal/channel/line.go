package channel

import (
	"bufio"
	"io"
	"strings"
	"sync"

	pcerr "peerchat/internal/errors"
	"peerchat/internal/protocol"
)

// Line frames each protocol unit as one "\n"-terminated line of text.
type Line struct {
	halves

	r *bufio.Reader

	mu sync.Mutex // serialises writers
	w  *bufio.Writer
}

// NewLine wraps rw with line framing.
func NewLine(rw io.ReadWriter) *Line {
	return &Line{
		halves: newHalves(rw),
		r:      bufio.NewReader(rw),
		w:      bufio.NewWriter(rw),
	}
}

// Send writes the frame's line form plus a newline and flushes.  Text
// after an embedded newline is dropped so that one Send is always one
// frame on the wire.
func (l *Line) Send(f protocol.Frame) error {
	line := f.Encode()
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.WriteString(line); err != nil {
		return pcerr.Wrap("write", l.addr, err)
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return pcerr.Wrap("write", l.addr, err)
	}
	return pcerr.Wrap("write", l.addr, l.w.Flush())
}

// Receive returns the next line without its terminator ("\n" or
// "\r\n").  A final line the peer did not terminate before closing is
// still delivered; the call after it returns io.EOF.
func (l *Line) Receive() (protocol.Frame, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return protocol.Parse(strings.TrimSuffix(line, "\r")), nil
		}
		return protocol.Frame{}, l.readErr(err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return protocol.Parse(line), nil
}
