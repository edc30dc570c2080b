// Package cmd wires up the CLI flags and dispatches to the onboarding core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"blue/config"
	"blue/internal/core"
	blueerr "blue/internal/errors"
	"blue/internal/metrics"
	"blue/internal/transport"
	"blue/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X blue/cmd.version=2.0.0"
var version = "1.0.0"

// Execute parses args and runs the selected mode.  The returned error
// maps onto the process exit code through errors.ExitCode.
func Execute(ctx context.Context, args []string) error {
	cfg, done, err := parse(args, os.Stdout)
	if err != nil || done {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := newLogger(cfg)
	defer logger.Sync()
	logger.Info("blue %s – SD-WAN router console onboarding", version)

	m := metrics.New()
	mode, err := core.Build(cfg, logger, m)
	if err != nil {
		return err
	}

	res, err := mode.Run(ctx)
	if cfg.DryRun {
		return err
	}
	summarize(logger, res, err)

	if cfg.Stats {
		fmt.Fprintln(os.Stderr, m.JSON())
	} else {
		logger.Verbose("stats: %s", m.JSON())
	}
	return err
}

// parse builds the configuration from defaults, the config file, the
// environment and the flags, in increasing precedence.  done is true
// when the invocation was fully handled (help, version, port listing).
func parse(args []string, stdout io.Writer) (cfg *config.Config, done bool, err error) {
	cfg = config.Default()

	if path := findConfigFile(args); path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return nil, false, &blueerr.ConfigError{Field: "config", Value: path, Message: err.Error()}
		}
		cfg.ConfigFile = path
	}
	config.LoadFromEnv(cfg)
	envVerbose := cfg.Verbose

	fs := flag.NewFlagSet("blue", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// ── console link ─────────────────────────────────────────────
	fs.StringVarP(&cfg.Link, "port", "s", cfg.Link, "Console link: DEVICE, serial:DEVICE, tcp:HOST:PORT or ssh:[USER@]HOST[:PORT]")
	fs.IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "Serial line speed")
	fs.DurationVar(&cfg.ConnTimeout, "conn-timeout", cfg.ConnTimeout, "TCP/SSH connect timeout")

	var listPorts bool
	fs.BoolVar(&listPorts, "list-ports", false, "List serial ports and exit")

	// ── onboarding ───────────────────────────────────────────────
	fs.StringVarP(&cfg.Mode, "mode", "m", cfg.Mode, "onboard, cert or audit")
	fs.StringVarP(&cfg.TemplatePath, "template", "t", cfg.TemplatePath, "Onboarding configuration script")
	fs.StringVar(&cfg.Hostname, "hostname", cfg.Hostname, "Device hostname shown in the prompt")
	fs.StringVar(&cfg.Certificate, "certificate", cfg.Certificate, "Root CA chain file on the device")
	fs.StringVar(&cfg.Timing, "timing", cfg.Timing, "fixed (full settle delays) or poll (return at the prompt)")
	fs.IntVar(&cfg.PollFactor, "poll-factor", cfg.PollFactor, "Poll budget as a multiple of the settle delay")

	// ── SSH console server ───────────────────────────────────────
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPromptPass, "ssh-password", cfg.SSHPromptPass, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "Only print errors")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print run statistics as JSON")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "n", cfg.DryRun, "Print the plan without opening the console")
	fs.StringVarP(&cfg.ConfigFile, "config", "c", cfg.ConfigFile, "YAML config file (also BLUE_CONFIG)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return nil, false, &blueerr.UsageError{Err: err}
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}

	switch {
	case showHelp || (len(args) == 0 && cfg.Link == ""):
		printUsage(fs)
		return cfg, true, nil
	case showVersion:
		fmt.Fprintf(stdout, "blue %s\n", version)
		return cfg, true, nil
	case listPorts:
		return cfg, true, printPorts(stdout)
	}

	// A bare positional argument is the console link.
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		if fs.Changed("port") {
			return nil, false, &blueerr.UsageError{Err: fmt.Errorf("console link given twice: --port and %q", rest[0])}
		}
		cfg.Link = rest[0]
	default:
		return nil, false, &blueerr.UsageError{Err: fmt.Errorf("too many arguments: %s", strings.Join(rest, " "))}
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// ── helpers ──────────────────────────────────────────────────────────

// findConfigFile locates --config before flag parsing so that the file
// can seed the flag defaults.
func findConfigFile(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		switch {
		case a == "--config" || a == "-c":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return os.Getenv("BLUE_CONFIG")
}

func newLogger(cfg *config.Config) *util.Logger {
	if cfg.LogFormat == config.LogJSON {
		return util.NewStructuredLogger(cfg.Verbosity(), os.Stderr)
	}
	return util.NewLogger(cfg.Verbosity())
}

func summarize(logger *util.Logger, res *core.Result, err error) {
	if res == nil {
		return
	}
	if res.Audit != nil {
		logger.Info("audit: %d lines confirmed, %d missing", len(res.Audit.Confirmed), len(res.Audit.Missing))
	}
	switch {
	case err == nil:
		logger.Info("%s complete", res.Mode)
	case blueerr.IsWarning(err):
		logger.Warn("%s complete with %d warning(s)", res.Mode, len(res.Warnings))
	default:
		logger.Error("%s aborted after %d step(s), console state %s", res.Mode, len(res.Steps), res.State)
	}
}

func printPorts(w io.Writer) error {
	ports, err := transport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `blue – SD-WAN router console onboarding v%s

Onboards a factory-default router over its console: logs in, stops PnP
discovery, pushes the onboarding configuration, audits the running
configuration and installs the root CA chain.

Usage:
  blue [options] <device>                     Onboard over a serial cable
  blue -s tcp:<host>:<port> [options]         Onboard via a terminal server
  blue -s ssh:<user>@<host> [options]         Onboard via an SSH console server
  blue --list-ports                           List serial ports

Options:
`, version)
	fs.SetOutput(os.Stderr)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Credentials are read from BLUE_USERNAME, BLUE_PASSWORD and
BLUE_NEW_PASSWORD or the config file.  Missing ones are prompted for on
the terminal once the device asks for a login.

Exit codes: 0 ok, 1 fatal error, 2 usage error, 3 completed with warnings.

Examples:
  blue /dev/ttyUSB0                           Full onboarding
  blue -s COM3 -t branch.j2 --timing=poll     Custom script, early return
  blue -s /dev/ttyUSB0 -m cert                Retry the certificate install
  blue -n -t branch.j2 /dev/ttyUSB0           Show the plan only
`)
}
