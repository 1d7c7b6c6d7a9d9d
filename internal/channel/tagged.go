package channel

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"

	"peerchat/config"
	pcerr "peerchat/internal/errors"
	"peerchat/internal/protocol"
)

// Field numbers of the tagged frame message.
const (
	fieldKind protowire.Number = 1
	fieldText protowire.Number = 2
)

// Tagged frames each unit as a varint length followed by a small
// protobuf-wire message {1: kind, 2: text}.  The kind travels
// explicitly, so chat text is never mistaken for a control frame.
type Tagged struct {
	halves

	r *bufio.Reader

	mu sync.Mutex
	w  io.Writer
}

// NewTagged wraps rw with tagged framing.
func NewTagged(rw io.ReadWriter) *Tagged {
	return &Tagged{
		halves: newHalves(rw),
		r:      bufio.NewReader(rw),
		w:      rw,
	}
}

// Send encodes f and writes it with a single Write call.
func (t *Tagged) Send(f protocol.Frame) error {
	msg := encodeFrame(f)
	if len(msg) > config.MaxFrameSize {
		return fmt.Errorf("send %d bytes: %w", len(msg), pcerr.ErrFrameTooLarge)
	}
	buf := protowire.AppendBytes(nil, msg)

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.w.Write(buf)
	return pcerr.Wrap("write", t.addr, err)
}

// Receive reads exactly one length-prefixed frame.
func (t *Tagged) Receive() (protocol.Frame, error) {
	size, err := binary.ReadUvarint(t.r)
	if err != nil {
		return protocol.Frame{}, t.readErr(err)
	}
	if size > config.MaxFrameSize {
		return protocol.Frame{}, fmt.Errorf("receive %d bytes: %w", size, pcerr.ErrFrameTooLarge)
	}
	msg := make([]byte, size)
	if _, err := io.ReadFull(t.r, msg); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return protocol.Frame{}, t.readErr(err)
	}
	return decodeFrame(msg)
}

// ── wire encoding ────────────────────────────────────────────────────

func encodeFrame(f protocol.Frame) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Kind))
	b = protowire.AppendTag(b, fieldText, protowire.BytesType)
	b = protowire.AppendString(b, f.Text)
	return b
}

// decodeFrame skips unknown fields and reads unknown kinds as chat.
func decodeFrame(b []byte) (protocol.Frame, error) {
	var f protocol.Frame
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protocol.Frame{}, fmt.Errorf("decode frame: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protocol.Frame{}, fmt.Errorf("decode kind: %w", protowire.ParseError(n))
			}
			f.Kind = kindFromWire(v)
			b = b[n:]
		case num == fieldText && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protocol.Frame{}, fmt.Errorf("decode text: %w", protowire.ParseError(n))
			}
			f.Text = string(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protocol.Frame{}, fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return f, nil
}

func kindFromWire(v uint64) protocol.Kind {
	switch protocol.Kind(v) {
	case protocol.KindIdentity:
		return protocol.KindIdentity
	case protocol.KindQuit:
		return protocol.KindQuit
	default:
		return protocol.KindChat
	}
}
