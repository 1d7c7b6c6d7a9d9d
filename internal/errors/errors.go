// Package errors provides domain-specific error types for peerchat.
//
// These types carry structured context (operation, address, offending
// input) so the CLI can print a precise message.  Every error is
// terminal for the session: nothing in peerchat retries.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNotConnected   = errors.New("not connected")
	ErrInvalidChoice  = errors.New("invalid choice")
	ErrFrameTooLarge  = errors.New("frame too large")
	ErrAuthFailed     = errors.New("authentication failed")
	ErrSessionStopped = errors.New("session stopped")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError is a transport failure: bind, accept, dial, upgrade,
// read or write on an established stream.
type NetworkError struct {
	Op   string // "listen", "accept", "dial", "upgrade", "read", "write"
	Addr string // network address involved
	Err  error
}

func (e *NetworkError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InputError reports operator text that could not be parsed, such as a
// malformed port number typed at a prompt.
type InputError struct {
	Field string // "port", "choice"
	Input string // the raw text
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Input, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// SSHError represents a jump-host failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "channel"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError.  A nil err yields nil so callers can
// wrap unconditionally.
func Wrap(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsTransport reports whether err came from the transport layer.
func IsTransport(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsInput reports whether err is an operator input error.
func IsInput(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsClosed reports whether err only says the stream is already gone.
// Such errors are expected during teardown and are not reported.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	// Half-closing a socket the peer already reset.
	if errors.Is(err, syscall.ENOTCONN) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use peerchat/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
