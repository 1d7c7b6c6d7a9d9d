package core

import (
	"peerchat/config"
	"peerchat/internal/capability"
	"peerchat/internal/console"
	pcerr "peerchat/internal/errors"
	"peerchat/internal/metrics"
	"peerchat/internal/transport"
	"peerchat/tunnel"
	"peerchat/util"
)

// Build constructs the Mode for a validated configuration.  It is the
// single dispatch point between the two roles.
func Build(cfg *config.Config, con *console.Console, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	peer := Peer{
		Name:       cfg.Name,
		Console:    con,
		Logger:     logger,
		Metrics:    m,
		Capability: &capability.Chat{},
		Tagged:     cfg.StrictFraming,
	}

	switch cfg.Role {
	case config.RoleHost:
		return &HostMode{
			Peer:      peer,
			Port:      cfg.Port,
			WebSocket: cfg.WebSocket,
		}, nil
	case config.RoleConnect:
		return &ConnectMode{
			Peer:    peer,
			Dialer:  buildDialer(cfg, logger),
			Address: util.FormatAddr(cfg.Host, cfg.Port),
		}, nil
	default:
		return nil, &pcerr.ConfigError{
			Field:   "listen",
			Message: "no mode selected",
			Hint:    "use -l to host or give a host to connect to",
		}
	}
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the transport.Dialer for the connect role: plain
// TCP or a jump host, optionally carrying a WebSocket.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	var d transport.Dialer = &transport.TCPDialer{Timeout: cfg.Timeout}

	if cfg.TunnelEnabled {
		d = transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, logger)
	}

	if cfg.WebSocket {
		d = &transport.WSDialer{Base: d}
	}
	return d
}
