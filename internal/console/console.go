// Package console is the operator's line-based terminal: prompts,
// chat rendering and interruptible line input.
//
// Only names, titles and notices are styled.  Chat text is written
// exactly as received.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Console reads operator lines from in and writes to out.  Output
// methods are safe for concurrent use.
type Console struct {
	in  *bufio.Reader
	out io.Writer

	outMu sync.Mutex
	st    styles

	// Input is read on demand by a pump goroutine so that a blocked
	// read can be abandoned when ctx ends.  No read is outstanding
	// between ReadLine calls, which leaves the terminal free for
	// password prompts.
	readMu  sync.Mutex
	pump    sync.Once
	reqs    chan struct{}
	lines   chan lineResult
	pending bool
}

type lineResult struct {
	text string
	err  error
}

// New returns a console.  When color is false every style is the
// identity, so output is plain text.
func New(in io.Reader, out io.Writer, color bool) *Console {
	return &Console{
		in:    bufio.NewReader(in),
		out:   out,
		st:    newStyles(out, color),
		reqs:  make(chan struct{}),
		lines: make(chan lineResult, 1),
	}
}

// ColorEnabled reports whether out is a terminal that should get
// styled output.
func ColorEnabled(out io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ── Input ────────────────────────────────────────────────────────────

// ReadLine blocks for the next operator line, without its terminator.
// It returns ctx.Err() if ctx ends first; the line being read is then
// kept for the next call.  At end of input it returns io.EOF.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	c.pump.Do(func() { go c.run() })
	if !c.pending {
		select {
		case c.reqs <- struct{}{}:
			c.pending = true
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	select {
	case r := <-c.lines:
		c.pending = false
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Prompt prints label and reads one line.
func (c *Console) Prompt(ctx context.Context, label string) (string, error) {
	c.Print(label)
	return c.ReadLine(ctx)
}

func (c *Console) run() {
	for range c.reqs {
		line, err := c.in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		c.lines <- lineResult{text: line, err: err}
	}
}

// ── Output ───────────────────────────────────────────────────────────

// Print writes s without a newline.
func (c *Console) Print(s string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprint(c.out, s) //nolint:errcheck
}

// Println writes s followed by a newline.
func (c *Console) Println(s string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintln(c.out, s) //nolint:errcheck
}

// Printf formats and writes a line.
func (c *Console) Printf(format string, args ...interface{}) {
	c.Println(fmt.Sprintf(format, args...))
}

// Title writes "=== text ===".
func (c *Console) Title(text string) {
	c.Println(c.st.title("=== " + text + " ==="))
}

// Rule writes the separator under the chat header.
func (c *Console) Rule() {
	c.Println(c.st.faint("------------------------"))
}

// Notice writes a bracketed status line such as "[Bob joined the chat]".
func (c *Console) Notice(text string) {
	c.Println(c.st.notice("[" + text + "]"))
}

// Message renders one line received from the peer.
func (c *Console) Message(name, text string) {
	c.Println(c.st.peer(name) + ": " + text)
}

// Echo renders one line the operator sent.
func (c *Console) Echo(text string) {
	c.Println(c.st.self("You") + ": " + text)
}

// Field writes a "Label: value" line of an info block.
func (c *Console) Field(label, value string) {
	c.Println(c.st.faint(label+":") + " " + value)
}

// Fail writes an operator-facing error line.
func (c *Console) Fail(text string) {
	c.Println(c.st.err(text))
}

// ── Styles ───────────────────────────────────────────────────────────

type styles struct {
	title, peer, self, notice, faint, err func(string) string
}

func newStyles(out io.Writer, color bool) styles {
	if !color {
		plain := func(s string) string { return s }
		return styles{plain, plain, plain, plain, plain, plain}
	}

	r := lipgloss.NewRenderer(out)
	render := func(st lipgloss.Style) func(string) string {
		return func(s string) string { return st.Render(s) }
	}
	return styles{
		title:  render(r.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))),
		peer:   render(r.NewStyle().Bold(true).Foreground(lipgloss.Color("#05ffa1"))),
		self:   render(r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff71ce"))),
		notice: render(r.NewStyle().Italic(true).Foreground(lipgloss.Color("247"))),
		faint:  render(r.NewStyle().Foreground(lipgloss.Color("#9ca3d8"))),
		err:    render(r.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))),
	}
}
