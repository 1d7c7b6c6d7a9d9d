package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestReadLine(t *testing.T) {
	c := New(strings.NewReader("alice\r\n\nlast"), io.Discard, false)
	ctx := context.Background()

	for _, want := range []string{"alice", "", "last"} {
		got, err := c.ReadLine(ctx)
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if got != want {
			t.Errorf("ReadLine = %q, want %q", got, want)
		}
	}
	if _, err := c.ReadLine(ctx); err != io.EOF {
		t.Errorf("ReadLine at end = %v, want io.EOF", err)
	}
}

func TestReadLine_CancelKeepsPendingLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close() //nolint:errcheck
	c := New(pr, io.Discard, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.ReadLine(ctx)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("ReadLine after cancel = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine did not return after cancel")
	}

	go pw.Write([]byte("hello\n")) //nolint:errcheck
	got, err := c.ReadLine(context.Background())
	if err != nil || got != "hello" {
		t.Errorf("ReadLine = %q, %v; want hello", got, err)
	}
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("Bob\n"), &out, false)
	got, err := c.Prompt(context.Background(), "Enter your username: ")
	if err != nil || got != "Bob" {
		t.Fatalf("Prompt = %q, %v", got, err)
	}
	if out.String() != "Enter your username: " {
		t.Errorf("output = %q", out.String())
	}
}

func TestOutput_Plain(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out, false)

	c.Title("Chat Started")
	c.Println("Commands: /quit, /help, /info")
	c.Rule()
	c.Notice("Bob joined the chat")
	c.Message("Bob", "hi\tthere")
	c.Echo("hello")
	c.Field("Username", "Alice")
	c.Printf("Connected to: %s", "10.0.0.7")
	c.Fail("Invalid choice. Exiting.")

	want := strings.Join([]string{
		"=== Chat Started ===",
		"Commands: /quit, /help, /info",
		"------------------------",
		"[Bob joined the chat]",
		"Bob: hi\tthere",
		"You: hello",
		"Username: Alice",
		"Connected to: 10.0.0.7",
		"Invalid choice. Exiting.",
		"",
	}, "\n")
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestOutput_ColorKeepsChatText(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out, true)
	c.Message("Bob", "raw\ttext")
	if !strings.HasSuffix(out.String(), ": raw\ttext\n") {
		t.Errorf("chat text altered: %q", out.String())
	}
}

func TestOutput_Concurrent(t *testing.T) {
	var out lockedBuffer
	c := New(strings.NewReader(""), &out, false)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Message("Bob", "line")
		}()
	}
	wg.Wait()
	if n := strings.Count(out.String(), "Bob: line\n"); n != 10 {
		t.Errorf("got %d whole lines, want 10", n)
	}
}

func TestColorEnabled(t *testing.T) {
	if ColorEnabled(&bytes.Buffer{}, false) {
		t.Error("a buffer is not a terminal")
	}
	if ColorEnabled(&bytes.Buffer{}, true) {
		t.Error("noColor must win")
	}
}

type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}
