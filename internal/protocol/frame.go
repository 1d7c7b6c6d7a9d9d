// Package protocol defines the frames exchanged between two peers and
// their classic text form.
//
// Under line framing a frame is one line of text.  Control frames are
// recognised by a literal prefix, so chat text that begins with one of
// the prefixes is read as a control frame by the other side.  Tagged
// framing (see package channel) carries the kind explicitly and does
// not have that limitation.
package protocol

import "strings"

// Wire prefixes of the control frames.
const (
	IdentityPrefix = "USERNAME:"
	QuitPrefix     = "QUIT:"
)

// Kind distinguishes the three frame types.
type Kind int

const (
	KindChat Kind = iota
	KindIdentity
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindIdentity:
		return "identity"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Frame is a single protocol unit.  For identity and quit frames Text
// holds the sender's display name.
type Frame struct {
	Kind Kind
	Text string
}

// Identity announces the sender's display name.
func Identity(name string) Frame { return Frame{Kind: KindIdentity, Text: name} }

// Quit tells the peer the sender is leaving.
func Quit(name string) Frame { return Frame{Kind: KindQuit, Text: name} }

// Chat carries operator text.
func Chat(text string) Frame { return Frame{Kind: KindChat, Text: text} }

// Parse classifies one received line.  Anything without a control
// prefix, including the empty line, is chat.
func Parse(line string) Frame {
	switch {
	case strings.HasPrefix(line, IdentityPrefix):
		return Identity(line[len(IdentityPrefix):])
	case strings.HasPrefix(line, QuitPrefix):
		return Quit(line[len(QuitPrefix):])
	default:
		return Chat(line)
	}
}

// Encode returns the line form of f without a terminator.
func (f Frame) Encode() string {
	switch f.Kind {
	case KindIdentity:
		return IdentityPrefix + f.Text
	case KindQuit:
		return QuitPrefix + f.Text
	default:
		return f.Text
	}
}

func (f Frame) String() string {
	return f.Kind.String() + "(" + f.Text + ")"
}
