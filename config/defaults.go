package config

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, prompts and environment variable loading.

const (
	// DefaultPort is used when the operator leaves the port prompt blank.
	DefaultPort = 12345

	// DefaultPeerName is shown for the remote side until its identity
	// frame arrives.
	DefaultPeerName = "Peer"

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// MaxFrameSize caps a single tagged frame.  Line frames are bounded
	// only by memory, as with any line reader.
	MaxFrameSize = 64 * 1024
)
