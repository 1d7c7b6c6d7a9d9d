package tunnel

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"peerchat/config"
	pcerr "peerchat/internal/errors"
	"peerchat/util"
)

// SSHConfig holds everything needed to log in to a jump host.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration

	// ReadSecret reads a password or key passphrase after printing
	// prompt.  Nil means read from the terminal without echo.
	ReadSecret func(prompt string) ([]byte, error)
}

// JumpHost implements [Route] over an SSH client connection, opening
// each stream as a direct-tcpip channel.
type JumpHost struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
	alive  bool
}

// NewJumpHost returns a route ready to [JumpHost.Connect].
func NewJumpHost(cfg *SSHConfig, logger *util.Logger) *JumpHost {
	if cfg.Port == 0 {
		cfg.Port = config.DefaultSSHPort
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &JumpHost{config: cfg, logger: logger}
}

func (j *JumpHost) addr() string {
	return net.JoinHostPort(j.config.Host, strconv.Itoa(j.config.Port))
}

// Connect dials the gateway and completes the SSH handshake.
func (j *JumpHost) Connect(ctx context.Context) error {
	authMethods, err := BuildAuthMethods(j.config)
	if err != nil {
		return pcerr.WrapSSH("auth", j.config.Host, j.config.Port, err)
	}

	hkCallback, err := hostKeyCallback(j.config)
	if err != nil {
		return pcerr.WrapSSH("hostkey", j.config.Host, j.config.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            j.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         j.config.ConnTimeout,
	}

	addr := j.addr()
	j.logger.Debug("SSH: dialing %s as %s", addr, j.config.User)

	dialer := net.Dialer{Timeout: j.config.ConnTimeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return pcerr.Wrap("dial", addr, err)
	}

	// The handshake itself does not watch ctx; closing the socket does.
	stop := context.AfterFunc(ctx, func() { tcpConn.Close() }) //nolint:errcheck
	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	stop()
	if err != nil {
		tcpConn.Close() //nolint:errcheck
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return pcerr.WrapSSH("handshake", j.config.Host, j.config.Port, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	j.mu.Lock()
	j.client = client
	j.alive = true
	j.mu.Unlock()

	go j.watch(client)
	return nil
}

// Dial opens a direct-tcpip channel to address.  The returned conn has
// no half-close; closing it closes the channel only.
func (j *JumpHost) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	j.mu.RLock()
	client, alive := j.client, j.alive
	j.mu.RUnlock()

	if !alive || client == nil {
		return nil, pcerr.ErrNotConnected
	}

	j.logger.Debug("jump host: dialing %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, pcerr.WrapSSH("channel", j.config.Host, j.config.Port, err)
	}
	return conn, nil
}

// Close shuts down the SSH connection.  Calling it again is harmless.
func (j *JumpHost) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.alive = false
	if j.client == nil {
		return nil
	}
	err := j.client.Close()
	j.client = nil
	return err
}

// IsAlive reports whether the gateway connection is still up.
func (j *JumpHost) IsAlive() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.alive
}

// watch marks the route dead once the SSH connection ends.
func (j *JumpHost) watch(client *ssh.Client) {
	err := client.Wait()

	j.mu.Lock()
	if j.client == client {
		j.alive = false
	}
	j.mu.Unlock()

	if err != nil {
		j.logger.Debug("jump host closed: %v", err)
	} else {
		j.logger.Debug("jump host closed")
	}
}
