// Package cmd wires up the CLI flags and dispatches to the FTP session.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"ftpc/config"
	"ftpc/internal/core"
	"ftpc/internal/extension"
	"ftpc/internal/transport"
	"ftpc/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X ftpc/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// flagKeys maps flag names onto config keys.  Only flags given on the
// command line are applied, so file and environment values survive.
var flagKeys = map[string]string{ //nolint:gochecknoglobals
	"host":           "server.host",
	"port":           "server.port",
	"user":           "server.user",
	"password":       "server.password",
	"dir":            "server.dir",
	"tunnel":         "tunnel.spec",
	"ssh-key":        "tunnel.key",
	"ssh-password":   "tunnel.password",
	"ssh-agent":      "tunnel.agent",
	"strict-hostkey": "tunnel.strict_hostkey",
	"known-hosts":    "tunnel.known_hosts",
	"timeout":        "timeout",
	"retries":        "retries",
	"disable-epsv":   "disable_epsv",
	"verbose":        "verbose",
}

// App is one CLI invocation with its standard streams.  Dialer, when
// set, replaces the dialer derived from the configuration.
type App struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Dialer transport.Dialer
}

// Execute parses args and runs the requested command on the process's
// standard streams.
func Execute(ctx context.Context, args []string) error {
	app := &App{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
	return app.Execute(ctx, args)
}

// Execute parses args and runs the requested command.
func (a *App) Execute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ftpc", flag.ContinueOnError)
	fs.SetOutput(a.Err)
	// Everything after the command word belongs to the command (ls -l).
	fs.SetInterspersed(false)

	var (
		configPath, serverSpec        string
		askPassword, showStats        bool
		dryRun, showVersion, showHelp bool
	)
	defaults := config.Defaults()

	// ── server ───────────────────────────────────────────────────
	fs.StringVarP(&configPath, "config", "c", "", "YAML config file")
	fs.StringVarP(&serverSpec, "server", "s", "", "FTP server as [user@]host[:port]")
	fs.StringP("host", "H", "", "FTP server host")
	fs.IntP("port", "P", defaults.Server.Port, "FTP server port")
	fs.StringP("user", "u", defaults.Server.User, "Login user")
	fs.String("password", "", "Login password (default anonymous@)")
	fs.BoolVar(&askPassword, "ask-password", false, "Prompt for the login password")
	fs.StringP("dir", "d", "", "Directory to enter after login")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringP("tunnel", "T", "", "SSH jump host as user@host[:port]")
	fs.String("ssh-key", "", "SSH private key file")
	fs.Bool("ssh-password", false, "Prompt for SSH password")
	fs.Bool("ssh-agent", false, "Use SSH agent")
	fs.Bool("strict-hostkey", false, "Verify SSH host keys")
	fs.String("known-hosts", "", "Custom known_hosts path")

	// ── protocol ─────────────────────────────────────────────────
	fs.DurationP("timeout", "w", defaults.Timeout, "Connect timeout")
	fs.Int("retries", defaults.Retries, "Extra connect attempts on network errors")
	fs.Bool("disable-epsv", false, "Use PASV instead of EPSV")

	// ── output ───────────────────────────────────────────────────
	fs.CountP("verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&showStats, "stats", false, "Print session statistics on exit")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate configuration and exit")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { a.printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		a.printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(a.Out, "ftpc %s\n", version)
		return nil
	}

	// ── load configuration ───────────────────────────────────────
	overrides, err := collectFlags(fs, serverSpec)
	if err != nil {
		return err
	}
	loader := config.NewLoader(config.WithConfigFile(configPath))
	cfg, err := loader.Load(overrides)
	if err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(a.Err)
	logger.Debug("config keys: %s", strings.Join(loader.Keys(), ", "))

	if askPassword {
		pw, err := util.ReadPassword(fmt.Sprintf("Password for %s: ", cfg.Server.User))
		if err != nil {
			return err
		}
		cfg.Server.Password = pw
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		a.printConfig(cfg)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("command required (use --help for usage)")
	}

	// ── build components ─────────────────────────────────────────
	var opts []core.Option
	if a.Dialer != nil {
		opts = append(opts, core.WithDialer(a.Dialer))
	}
	sess, err := core.Build(cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Verbose("closing session: %v", err)
		}
		if showStats {
			fmt.Fprintln(a.Err, sess.Metrics.JSON())
		}
	}()

	reg := extension.NewContext(a.Out, logger)
	if err := sess.Activate(ctx, reg); err != nil {
		return err
	}

	if rest[0] == "shell" {
		if len(rest) != 1 {
			return fmt.Errorf("shell takes no arguments")
		}
		sh := &shell{reg: reg, in: a.In, out: a.Out, logger: logger.Named("shell")}
		return sh.run(ctx)
	}
	return runOnce(ctx, reg, rest)
}

// runOnce connects, runs one command, and disconnects.
func runOnce(ctx context.Context, reg *extension.Context, argv []string) error {
	name, args, err := resolve(argv)
	if err != nil {
		return err
	}
	if name == "ftp.connect" || name == "ftp.disconnect" || name == "ftp.status" {
		return fmt.Errorf("%s is only available in the shell", argv[0])
	}

	if err := reg.Run(ctx, "ftp.connect", nil); err != nil {
		return err
	}
	runErr := reg.Run(ctx, name, args)
	if err := reg.Run(ctx, "ftp.disconnect", nil); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// ── commands ─────────────────────────────────────────────────────────

type command struct {
	name, target, usage string
}

var commands = []command{ //nolint:gochecknoglobals
	{"connect", "ftp.connect", ""},
	{"disconnect", "ftp.disconnect", ""},
	{"ls", "ftp.list", "[-l]"},
	{"get", "ftp.download", "REMOTE [LOCAL]"},
	{"put", "ftp.upload", "LOCAL [REMOTE]"},
	{"rm", "ftp.delete", "REMOTE"},
	{"status", "ftp.status", ""},
}

// resolve maps a CLI or shell command line onto a registered command,
// filling in the default destination name for get and put.
func resolve(argv []string) (string, []string, error) {
	for _, c := range commands {
		if c.name != argv[0] {
			continue
		}
		args := argv[1:]
		switch {
		case c.name == "get" && len(args) == 1:
			args = []string{args[0], path.Base(args[0])}
		case c.name == "put" && len(args) == 1:
			args = []string{args[0], filepath.Base(args[0])}
		}
		return c.target, args, nil
	}
	return "", nil, fmt.Errorf("unknown command %q", argv[0])
}

// ── helpers ──────────────────────────────────────────────────────────

// collectFlags turns the flags set on the command line into config
// overrides.  --server is applied first so -H/-P/-u can refine it.
func collectFlags(fs *flag.FlagSet, serverSpec string) (map[string]any, error) {
	out := make(map[string]any)
	if serverSpec != "" {
		user, host, port, err := config.ParseServerSpec(serverSpec)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		out["server.host"] = host
		out["server.port"] = port
		if user != "" {
			out["server.user"] = user
		}
	}

	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			out[key] = f.Value.String()
		}
	})
	return out, nil
}

func (a *App) printConfig(cfg *config.Config) {
	fmt.Fprintf(a.Out, "server:  %s@%s\n", cfg.Server.User, util.FormatAddr(cfg.Server.Host, cfg.Server.Port))
	if cfg.Server.Dir != "" {
		fmt.Fprintf(a.Out, "dir:     %s\n", cfg.Server.Dir)
	}
	if cfg.TunnelEnabled() {
		fmt.Fprintf(a.Out, "tunnel:  %s\n", cfg.Tunnel.Spec)
	}
	fmt.Fprintf(a.Out, "timeout: %s  retries: %d  epsv: %t\n", cfg.Timeout, cfg.Retries, !cfg.DisableEPSV)
}

func (a *App) printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(a.Err, `ftpc – single-session FTP client v%s

Usage:
  ftpc [options] ls [-l]                     List the working directory
  ftpc [options] get REMOTE [LOCAL]          Download a file
  ftpc [options] put LOCAL [REMOTE]          Upload a file
  ftpc [options] rm REMOTE                   Delete a remote file
  ftpc [options] shell                       Interactive session

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(a.Err, `
Environment:
  FTPC_SERVER_HOST, FTPC_SERVER_PORT, FTPC_SERVER_USER, FTPC_SERVER_PASSWORD,
  FTPC_SERVER_DIR, FTPC_TUNNEL_SPEC, FTPC_TIMEOUT, FTPC_RETRIES, ...

Examples:
  ftpc -H ftp.example.com ls                 Anonymous listing
  ftpc -s demo@ftp.example.com -d /pub get readme.txt
  ftpc -c ftpc.yaml --ask-password put report.pdf
  ftpc -T admin@bastion -H ftp.internal shell
`)
}
