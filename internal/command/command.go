// Package command recognises the local directives an operator can type
// during a chat.  Directives never reach the peer.
package command

import "strings"

// Command is one local directive.
type Command int

const (
	None Command = iota
	Quit
	Help
	Info
)

// all lists the directives in the order help shows them.
var all = []struct {
	cmd  Command
	word string
	desc string
}{
	{Quit, "/quit", "Exit chat"},
	{Help, "/help", "Show commands"},
	{Info, "/info", "Show connection info"},
}

func (c Command) String() string {
	for _, e := range all {
		if e.cmd == c {
			return e.word
		}
	}
	return "none"
}

// Parse reports which directive line is.  Only a whole-line match
// counts, ignoring case; "/quit now" is chat.
func Parse(line string) (Command, bool) {
	lower := strings.ToLower(line)
	for _, e := range all {
		if lower == e.word {
			return e.cmd, true
		}
	}
	return None, false
}

// Words returns the directive names, e.g. for the chat header.
func Words() []string {
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = e.word
	}
	return out
}

// HelpLines returns one "word - description" line per directive.
func HelpLines() []string {
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = e.word + " - " + e.desc
	}
	return out
}
