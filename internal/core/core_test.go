package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"peerchat/internal/capability"
	"peerchat/internal/console"
	pcerr "peerchat/internal/errors"
	"peerchat/internal/metrics"
	"peerchat/internal/transport"
	"peerchat/util"
)

// ── helpers ──────────────────────────────────────────────────────────

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in:\n%s", want, buf.String())
}

var waitingRe = regexp.MustCompile(`Waiting for connection on port (\d+)\.\.\.`)

// hostPort reads the port a HostMode announced on its console.
func hostPort(t *testing.T, out *syncBuffer) int {
	t.Helper()
	waitFor(t, out, "Your IP: ")
	m := waitingRe.FindStringSubmatch(out.String())
	if m == nil {
		t.Fatalf("no port announced in:\n%s", out.String())
	}
	port, _ := strconv.Atoi(m[1])
	return port
}

func testPeer(name string, in io.Reader, tagged bool) (Peer, *syncBuffer) {
	out := &syncBuffer{}
	logger := util.NewLogger(0)
	logger.SetOutput(io.Discard)
	return Peer{
		Name:       name,
		Console:    console.New(in, out, false),
		Logger:     logger,
		Metrics:    metrics.New(),
		Capability: &capability.Chat{LocalIP: func() string { return "192.0.2.1" }},
		Tagged:     tagged,
	}, out
}

func run(ctx context.Context, m Mode) <-chan error {
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, what string, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("%s did not finish", what)
		return nil
	}
}

// ── host + connect ───────────────────────────────────────────────────

func TestHostAndConnect_Chat(t *testing.T) {
	tests := []struct {
		name      string
		webSocket bool
		tagged    bool
	}{
		{"tcp lines", false, false},
		{"tcp tagged", false, true},
		{"websocket lines", true, false},
		{"websocket tagged", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			aliceIn, aliceW := io.Pipe()
			defer aliceW.Close() //nolint:errcheck
			bobIn, bobW := io.Pipe()
			defer bobW.Close() //nolint:errcheck

			alicePeer, aliceOut := testPeer("Alice", aliceIn, tt.tagged)
			host := &HostMode{
				Peer:      alicePeer,
				WebSocket: tt.webSocket,
				LocalIP:   func() string { return "192.0.2.1" },
			}
			hostDone := run(ctx, host)
			port := hostPort(t, aliceOut)

			var d transport.Dialer = &transport.TCPDialer{Timeout: 2 * time.Second}
			if tt.webSocket {
				d = &transport.WSDialer{Base: d}
			}
			bobPeer, bobOut := testPeer("Bob", bobIn, tt.tagged)
			connect := &ConnectMode{
				Peer:    bobPeer,
				Dialer:  d,
				Address: util.FormatAddr("127.0.0.1", port),
			}
			connectDone := run(ctx, connect)

			waitFor(t, bobOut, "[Alice joined the chat]")
			if _, err := bobW.Write([]byte("hi\n")); err != nil {
				t.Fatal(err)
			}
			waitFor(t, aliceOut, "Bob: hi")
			if _, err := aliceW.Write([]byte("/quit\n")); err != nil {
				t.Fatal(err)
			}

			if err := waitDone(t, "host", hostDone); err != nil {
				t.Fatalf("host: %v", err)
			}
			if err := waitDone(t, "connect", connectDone); err != nil {
				t.Fatalf("connect: %v", err)
			}

			for _, want := range []string{
				"Your IP: 192.0.2.1",
				"Connected to: 127.0.0.1",
				"[Bob joined the chat]",
				"Goodbye!",
			} {
				if !strings.Contains(aliceOut.String(), want) {
					t.Errorf("host output missing %q:\n%s", want, aliceOut.String())
				}
			}
			for _, want := range []string{
				"Connecting to 127.0.0.1:" + strconv.Itoa(port) + "...",
				"Connected successfully!",
				"You: hi",
				"[Alice left the chat]",
			} {
				if !strings.Contains(bobOut.String(), want) {
					t.Errorf("connect output missing %q:\n%s", want, bobOut.String())
				}
			}

			if got := alicePeer.Metrics.FramesReceived(); got != 2 {
				t.Errorf("host frames received = %d, want 2", got)
			}
			if got := alicePeer.Metrics.ActiveConnections(); got != 0 {
				t.Errorf("host active connections = %d, want 0", got)
			}
		})
	}
}

// ── host ─────────────────────────────────────────────────────────────

func TestHostMode_InterruptWhileWaiting(t *testing.T) {
	peer, out := testPeer("Alice", strings.NewReader(""), false)
	ctx, cancel := context.WithCancel(context.Background())
	done := run(ctx, &HostMode{Peer: peer, LocalIP: func() string { return "192.0.2.1" }})

	port := hostPort(t, out)
	cancel()

	if err := waitDone(t, "host", done); err != nil {
		t.Fatalf("Run = %v, want nil after an interrupt", err)
	}

	// The listening socket must be gone.
	ln, err := net.Listen("tcp", util.FormatAddr("", port))
	if err != nil {
		t.Fatalf("port %d still bound: %v", port, err)
	}
	ln.Close() //nolint:errcheck
}

func TestHostMode_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close() //nolint:errcheck
	_, port := util.SplitAddr(ln.Addr())

	peer, _ := testPeer("Alice", strings.NewReader(""), false)
	err = (&HostMode{Peer: peer, Port: port}).Run(context.Background())
	if !pcerr.IsTransport(err) {
		t.Fatalf("Run = %v, want a transport error", err)
	}
}

func TestHostMode_WebSocketRejectsPlainPeer(t *testing.T) {
	peer, out := testPeer("Alice", strings.NewReader(""), false)
	done := run(context.Background(), &HostMode{Peer: peer, WebSocket: true, LocalIP: func() string { return "x" }})
	port := hostPort(t, out)

	c, err := net.Dial("tcp", util.FormatAddr("127.0.0.1", port))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close() //nolint:errcheck

	c.Write([]byte("USERNAME:Bob\n\n")) //nolint:errcheck

	if err := waitDone(t, "host", done); !pcerr.IsTransport(err) {
		t.Fatalf("Run = %v, want a transport error", err)
	}
	if strings.Contains(out.String(), "Connected to:") {
		t.Error("a failed upgrade must not report a connection")
	}
}

// brokenListener fails every Accept without being closed.
type brokenListener struct {
	net.Listener
}

func (brokenListener) Accept() (net.Conn, error) {
	return nil, errors.New("too many open files")
}

func TestHostMode_AcceptFailureIsRecorded(t *testing.T) {
	peer, _ := testPeer("Alice", strings.NewReader(""), false)
	var inner net.Listener
	host := &HostMode{
		Peer:    peer,
		LocalIP: func() string { return "192.0.2.1" },
		Listen: func(ctx context.Context, port int) (net.Listener, error) {
			ln, err := transport.Listen(ctx, port)
			if err != nil {
				return nil, err
			}
			inner = ln
			return brokenListener{ln}, nil
		},
	}

	err := host.Run(context.Background())
	if !pcerr.IsTransport(err) {
		t.Fatalf("Run = %v, want a transport error", err)
	}
	if got := peer.Metrics.ErrorCount(); got != 1 {
		t.Errorf("errors = %d, want 1", got)
	}
	if snap := peer.Metrics.Snapshot(); !strings.Contains(snap.LastErrorMessage, "too many open files") {
		t.Errorf("last error = %q", snap.LastErrorMessage)
	}

	// Teardown still released the real socket.
	if _, err := inner.Accept(); err == nil {
		t.Error("listener should be closed after a failed accept")
	}
}

// ── connect ──────────────────────────────────────────────────────────

func TestConnectMode_Refused(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	peer, out := testPeer("Bob", strings.NewReader(""), false)
	err = (&ConnectMode{
		Peer:    peer,
		Dialer:  &transport.TCPDialer{Timeout: 2 * time.Second},
		Address: util.FormatAddr("127.0.0.1", port),
	}).Run(context.Background())

	if !pcerr.IsTransport(err) {
		t.Fatalf("Run = %v, want a transport error", err)
	}
	if !strings.Contains(out.String(), "Connecting to 127.0.0.1:") {
		t.Errorf("output = %q", out.String())
	}
	if strings.Contains(out.String(), "Connected successfully!") {
		t.Error("a failed dial must not report success")
	}
	if peer.Metrics.ErrorCount() != 1 {
		t.Errorf("errors = %d, want 1", peer.Metrics.ErrorCount())
	}
}

type countingDialer struct {
	transport.TCPDialer
	closed int
}

func (d *countingDialer) Close() error {
	d.closed++
	return nil
}

func TestConnectMode_ClosesDialer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close() //nolint:errcheck

	// The remote end sends its identity and quits straight away.
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close() //nolint:errcheck
		if _, err := c.Write([]byte("USERNAME:Alice\nQUIT:Alice\n")); err != nil {
			return
		}
		io.Copy(io.Discard, c) //nolint:errcheck
	}()

	in, inW := io.Pipe()
	defer inW.Close() //nolint:errcheck

	peer, out := testPeer("Bob", in, false)
	d := &countingDialer{}
	err = (&ConnectMode{Peer: peer, Dialer: d, Address: ln.Addr().String()}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.closed != 1 {
		t.Errorf("dialer closed %d times, want 1", d.closed)
	}
	if !strings.Contains(out.String(), "[Alice left the chat]") {
		t.Errorf("output:\n%s", out.String())
	}
}
