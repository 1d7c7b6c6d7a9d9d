// Package config defines the runtime configuration for a peerchat
// session and the parsers for operator-typed values (ports, mode
// choice, jump-host specs).
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	pcerr "peerchat/internal/errors"
)

// Role selects how the session's transport is established.
type Role int

const (
	// RoleUnset means the operator has not chosen yet; the CLI prompts.
	RoleUnset Role = iota
	// RoleHost listens on a port and accepts exactly one peer.
	RoleHost
	// RoleConnect dials a peer that is hosting.
	RoleConnect
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleConnect:
		return "connect"
	default:
		return "unset"
	}
}

// Config holds every tuneable for a single chat session.
type Config struct {
	// ── Identity ─────────────────────────────────────────────────────
	Name string

	// ── Connection ───────────────────────────────────────────────────
	Role          Role
	Host          string        // connect: remote address
	Port          int           // host: listen port; connect: remote port
	PortSet       bool          // Port came from a flag, env var or argument
	Timeout       time.Duration // connect only; zero waits forever
	WebSocket     bool          // carry frames inside a WebSocket
	StrictFraming bool          // tagged frames instead of text lines

	// ── SSH jump host (connect only) ─────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	NoColor bool
	DryRun  bool
}

// ── Operator input parsers ───────────────────────────────────────────

// ParsePort converts operator text into a port.  Empty text selects
// DefaultPort; anything that is not an integer in 0-65535 is an
// InputError.  Port 0 asks the kernel for an ephemeral port when
// hosting.
func ParsePort(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultPort, nil
	}
	port, err := strconv.Atoi(text)
	if err != nil {
		return 0, &pcerr.InputError{Field: "port", Input: text, Err: err}
	}
	if port < 0 || port > 65535 {
		return 0, &pcerr.InputError{
			Field: "port",
			Input: text,
			Err:   fmt.Errorf("out of range 0-65535"),
		}
	}
	return port, nil
}

// ParseChoice maps the mode menu answer ("1" or "2") to a Role.
func ParseChoice(text string) (Role, error) {
	switch strings.TrimSpace(text) {
	case "1":
		return RoleHost, nil
	case "2":
		return RoleConnect, nil
	default:
		return RoleUnset, &pcerr.InputError{
			Field: "choice",
			Input: text,
			Err:   pcerr.ErrInvalidChoice,
		}
	}
}

// DefaultName generates the identity used when the operator leaves the
// username blank.
func DefaultName(now time.Time) string {
	return fmt.Sprintf("User%d", now.UnixMilli()%1000)
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("tunnel host is required")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that a fully resolved configuration (after flags,
// environment and prompts) is internally consistent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &pcerr.ConfigError{
			Field:   "name",
			Message: "must not be empty",
			Hint:    "pass -n <name> or leave the prompt blank for a generated name",
		}
	}

	switch c.Role {
	case RoleHost:
		if c.Port < 0 || c.Port > 65535 {
			return &pcerr.ConfigError{
				Field:   "port",
				Value:   c.Port,
				Message: "out of range 0-65535",
				Hint:    "use 0 to let the system pick a free port",
			}
		}
		if c.TunnelEnabled {
			return &pcerr.ConfigError{
				Field:   "tunnel",
				Value:   c.TunnelSpec,
				Message: "hosting through an SSH jump host is not supported",
				Hint:    "the peer that connects may use -T instead",
			}
		}
	case RoleConnect:
		if c.Host == "" {
			return &pcerr.ConfigError{
				Field:   "host",
				Message: "required when connecting",
				Hint:    "peerchat <host> [port]",
			}
		}
		if c.Port < 1 || c.Port > 65535 {
			return &pcerr.ConfigError{
				Field:   "port",
				Value:   c.Port,
				Message: "out of range 1-65535",
			}
		}
	default:
		return &pcerr.ConfigError{
			Field:   "listen",
			Message: "no mode selected",
			Hint:    "use -l to host or give a host to connect to",
		}
	}

	if c.Timeout < 0 {
		return &pcerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &pcerr.ConfigError{Field: "tunnel", Message: "tunnel host is required"}
	}

	return nil
}
