package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"peerchat/config"
	"peerchat/internal/console"
	pcerr "peerchat/internal/errors"
	"peerchat/internal/metrics"
	"peerchat/internal/transport"
	"peerchat/util"
)

func build(t *testing.T, cfg *config.Config) Mode {
	t.Helper()
	mode, err := Build(cfg, console.New(strings.NewReader(""), &strings.Builder{}, false), util.NewLogger(0), metrics.New())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return mode
}

// TestBuild_Host verifies that Build produces a HostMode for the host
// role.
func TestBuild_Host(t *testing.T) {
	mode := build(t, &config.Config{Name: "Alice", Role: config.RoleHost, Port: 12345, WebSocket: true, StrictFraming: true})

	hm, ok := mode.(*HostMode)
	if !ok {
		t.Fatalf("expected *HostMode, got %T", mode)
	}
	if hm.Port != 12345 || !hm.WebSocket || !hm.Tagged || hm.Name != "Alice" {
		t.Errorf("unexpected host mode: %+v", hm)
	}
	if hm.Capability == nil {
		t.Error("capability should default to chat")
	}
}

// TestBuild_Connect verifies the address and the default dialer.
func TestBuild_Connect(t *testing.T) {
	mode := build(t, &config.Config{
		Name:    "Bob",
		Role:    config.RoleConnect,
		Host:    "192.168.1.5",
		Port:    12345,
		Timeout: 5 * time.Second,
	})

	cm, ok := mode.(*ConnectMode)
	if !ok {
		t.Fatalf("expected *ConnectMode, got %T", mode)
	}
	if cm.Address != "192.168.1.5:12345" {
		t.Errorf("Address = %q", cm.Address)
	}
	d, ok := cm.Dialer.(*transport.TCPDialer)
	if !ok {
		t.Fatalf("expected *TCPDialer, got %T", cm.Dialer)
	}
	if d.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", d.Timeout)
	}
}

func TestBuild_ConnectIPv6(t *testing.T) {
	mode := build(t, &config.Config{Name: "Bob", Role: config.RoleConnect, Host: "::1", Port: 9000})
	if got := mode.(*ConnectMode).Address; got != "[::1]:9000" {
		t.Errorf("Address = %q", got)
	}
}

func TestBuild_DialerLayers(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		wantWS bool
		base   string
	}{
		{"tcp", config.Config{}, false, "*transport.TCPDialer"},
		{"tunnel", config.Config{TunnelEnabled: true, TunnelHost: "gw"}, false, "*transport.SSHDialer"},
		{"ws", config.Config{WebSocket: true}, true, "*transport.TCPDialer"},
		{"ws over tunnel", config.Config{WebSocket: true, TunnelEnabled: true, TunnelHost: "gw"}, true, "*transport.SSHDialer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := buildDialer(&tt.cfg, util.NewLogger(0))
			if wd, ok := d.(*transport.WSDialer); ok != tt.wantWS {
				t.Fatalf("WebSocket wrapping = %v, want %v", ok, tt.wantWS)
			} else if ok {
				d = wd.Base
			}
			if got := fmt.Sprintf("%T", d); got != tt.base {
				t.Errorf("base dialer = %s, want %s", got, tt.base)
			}
		})
	}
}

func TestBuild_NoRole(t *testing.T) {
	_, err := Build(&config.Config{Name: "Alice"}, nil, util.NewLogger(0), metrics.New())
	var ce *pcerr.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want a ConfigError", err)
	}
}
