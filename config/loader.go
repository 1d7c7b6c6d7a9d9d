package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. Interactive prompts (only for values still missing)
//   2. CLI flags  (handled by cmd/root.go)
//   3. Environment variables  (this file)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the PEERCHAT_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PEERCHAT_NAME"); v != "" {
		cfg.Name = v
	}
	if v := os.Getenv("PEERCHAT_HOST"); v != "" {
		cfg.Host = v
	}
	if p, ok := envPort("PEERCHAT_PORT"); ok {
		cfg.Port = p
		cfg.PortSet = true
	}
	if envBool("PEERCHAT_LISTEN") {
		cfg.Role = RoleHost
	}
	if v := envInt("PEERCHAT_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if envBool("PEERCHAT_WS") {
		cfg.WebSocket = true
	}
	if envBool("PEERCHAT_STRICT_FRAMING") {
		cfg.StrictFraming = true
	}

	// SSH jump host
	if v := os.Getenv("PEERCHAT_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("PEERCHAT_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("PEERCHAT_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("PEERCHAT_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("PEERCHAT_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if envBool("PEERCHAT_NO_COLOR") {
		cfg.NoColor = true
	}
	if v := envInt("PEERCHAT_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// envPort distinguishes an explicit "0" (ephemeral port) from unset.
func envPort(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	p, err := ParsePort(v)
	if err != nil {
		return 0, false
	}
	return p, true
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
