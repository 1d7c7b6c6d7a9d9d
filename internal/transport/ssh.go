package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"peerchat/tunnel"
	"peerchat/util"
)

// SSHDialer reaches the peer through an SSH jump host.  The gateway
// session is opened on the first Dial and ended by Close.
type SSHDialer struct {
	route  tunnel.Route
	config *tunnel.SSHConfig
	logger *util.Logger

	mu        sync.Mutex
	connected bool
}

// NewSSHDialer creates a dialer that routes through the jump host
// described by cfg.  Nothing is dialled until the first Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		route:  tunnel.NewJumpHost(cfg, logger),
		config: cfg,
		logger: logger,
	}
}

func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected && d.route.IsAlive() {
		return nil
	}

	d.logger.Verbose("logging in to jump host %s@%s:%d",
		d.config.User, d.config.Host, d.config.Port)

	if err := d.route.Connect(ctx); err != nil {
		return fmt.Errorf("jump host: %w", err)
	}

	d.connected = true
	d.logger.Verbose("jump host session established")
	return nil
}

// Dial opens a stream to address from the jump host.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d.route.Dial(ctx, network, address)
}

// Close ends the jump host session, which also closes any stream
// opened through it.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}
	d.connected = false
	return d.route.Close()
}
