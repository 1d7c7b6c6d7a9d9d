// Package cmd wires up the CLI flags, prompts for whatever the flags
// left open, and dispatches to the core roles.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"peerchat/config"
	"peerchat/internal/console"
	"peerchat/internal/core"
	"peerchat/internal/metrics"
	"peerchat/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X peerchat/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args, asks the operator for anything still missing,
// and runs the selected role against the process's terminal.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	cfg := &config.Config{}
	config.LoadFromEnv(cfg)

	// CountVarP resets its target, so remember the environment's level.
	verboseFromEnv := cfg.Verbose

	fs := flag.NewFlagSet("peerchat", flag.ContinueOnError)
	fs.SetOutput(errOut)

	// ── identity & role ──────────────────────────────────────────
	fs.StringVarP(&cfg.Name, "name", "n", cfg.Name, "Username shown to the peer")
	listen := fs.BoolP("listen", "l", cfg.Role == config.RoleHost, "Host: wait for a peer to connect")
	fs.IntVarP(&cfg.Port, "port", "p", portDefault(cfg), "Port to listen on or connect to")

	// ── connection ───────────────────────────────────────────────
	timeoutSec := fs.IntP("timeout", "w", int(cfg.Timeout/time.Second), "Connect timeout in seconds (0 waits forever)")
	fs.BoolVar(&cfg.WebSocket, "ws", cfg.WebSocket, "Carry the chat inside a WebSocket")
	fs.BoolVar(&cfg.StrictFraming, "strict-framing", cfg.StrictFraming, "Length-prefixed frames (both peers must agree)")

	// ── SSH jump host ────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Connect through an SSH jump host [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable styled output")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Verbose logging; -vv adds debug output")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Resolve and print the configuration, then exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs, errOut) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs, errOut)
		return nil
	}
	if showVersion {
		fmt.Fprintf(out, "peerchat %s\n", version) //nolint:errcheck
		return nil
	}

	if !fs.Changed("verbose") {
		cfg.Verbose = verboseFromEnv
	}
	if fs.Changed("port") {
		cfg.PortSet = true
	}
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	if *listen {
		cfg.Role = config.RoleHost
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── tunnel spec ──────────────────────────────────────────────
	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	// ── build components ─────────────────────────────────────────
	// Warnings are on by default; each -v adds a level.
	logger := util.NewLogger(int(util.LogNormal) + cfg.Verbose)
	logger.SetOutput(errOut)
	con := console.New(in, out, console.ColorEnabled(out, cfg.NoColor))

	// ── prompts ──────────────────────────────────────────────────
	if err := resolve(ctx, cfg, con); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.DryRun {
		printConfig(con, cfg)
		return nil
	}

	m := metrics.New()
	mode, err := core.Build(cfg, con, logger, m)
	if err != nil {
		return err
	}

	logger.Verbose("starting as %s (%s)", cfg.Name, cfg.Role)
	err = mode.Run(ctx)
	logger.Verbose("session metrics: %s", m.JSON())
	return err
}

// ── helpers ──────────────────────────────────────────────────────────

// portDefault keeps an environment-supplied port as the flag default.
func portDefault(cfg *config.Config) int {
	if cfg.PortSet {
		return cfg.Port
	}
	return config.DefaultPort
}

// parsePositional accepts "host [port]" for the connect role.  Giving
// a host selects the connect role; hosting takes no positionals.
func parsePositional(cfg *config.Config, remaining []string) error {
	if len(remaining) == 0 {
		if cfg.Host != "" && cfg.Role == config.RoleUnset {
			cfg.Role = config.RoleConnect
		}
		return nil
	}
	if cfg.Role == config.RoleHost {
		return fmt.Errorf("unexpected argument %q in host mode (use -p for the port)", remaining[0])
	}
	if len(remaining) > 2 {
		return fmt.Errorf("too many arguments (use --help for usage)")
	}

	cfg.Host = remaining[0]
	cfg.Role = config.RoleConnect
	if len(remaining) == 2 {
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return err
		}
		cfg.Port = port
		cfg.PortSet = true
	}
	return nil
}

// resolve prompts for every value the flags, environment and
// positionals left open, in the order a first-time operator meets
// them: username, mode, then the role's address.
func resolve(ctx context.Context, cfg *config.Config, con *console.Console) error {
	interactive := cfg.Name == "" || cfg.Role == config.RoleUnset ||
		(cfg.Role == config.RoleConnect && cfg.Host == "")
	if interactive {
		con.Title("P2P Terminal Chat")
	}

	if cfg.Name == "" {
		name, err := con.Prompt(ctx, "Enter your username: ")
		if err != nil {
			return fmt.Errorf("username: %w", err)
		}
		cfg.Name = strings.TrimSpace(name)
		if cfg.Name == "" {
			cfg.Name = config.DefaultName(time.Now())
		}
	}

	if cfg.Role == config.RoleUnset {
		con.Println("")
		con.Println("Choose mode:")
		con.Println("1. Host (wait for connection)")
		con.Println("2. Connect (connect to host)")
		choice, err := con.Prompt(ctx, "Enter choice (1 or 2): ")
		if err != nil {
			return fmt.Errorf("mode: %w", err)
		}
		role, err := config.ParseChoice(choice)
		if err != nil {
			con.Fail("Invalid choice. Exiting.")
			return err
		}
		cfg.Role = role
	}

	if cfg.Role == config.RoleConnect && cfg.Host == "" {
		host, err := con.Prompt(ctx, "Enter host IP address: ")
		if err != nil {
			return fmt.Errorf("host: %w", err)
		}
		cfg.Host = strings.TrimSpace(host)
	}

	if !cfg.PortSet {
		text, err := con.Prompt(ctx, "Enter port (default "+strconv.Itoa(config.DefaultPort)+"): ")
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		port, err := config.ParsePort(text)
		if err != nil {
			return err
		}
		cfg.Port = port
		cfg.PortSet = true
	}
	return nil
}

func printConfig(con *console.Console, cfg *config.Config) {
	con.Title("Configuration")
	con.Field("Username", cfg.Name)
	con.Field("Role", cfg.Role.String())
	if cfg.Role == config.RoleConnect {
		con.Field("Host", cfg.Host)
	}
	con.Field("Port", strconv.Itoa(cfg.Port))
	if cfg.Timeout > 0 {
		con.Field("Timeout", cfg.Timeout.String())
	}
	framing := "lines"
	if cfg.StrictFraming {
		framing = "tagged"
	}
	con.Field("Framing", framing)
	con.Field("WebSocket", strconv.FormatBool(cfg.WebSocket))
	if cfg.TunnelEnabled {
		con.Field("Jump host", util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
	}
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `peerchat – two-party terminal chat v%s

Usage:
  peerchat [options]                          Prompt for everything
  peerchat -l [-p <port>] [options]           Host and wait for a peer
  peerchat [options] <host> [port]            Connect to a hosting peer
  peerchat -T user@gateway <host> [port]      Connect through a jump host

In chat: /quit  /help  /info

Options:
`, version) //nolint:errcheck
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  peerchat -n Alice -l -p %d                 Host on the default port
  peerchat -n Bob 192.168.1.5                 Connect to Alice
  peerchat --ws -n Bob chat.example.com 443   Chat over a WebSocket
  PEERCHAT_NAME=Bob peerchat 10.0.0.7 9000    Name from the environment
`, config.DefaultPort) //nolint:errcheck
}
