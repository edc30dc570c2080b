// Package config defines the runtime configuration for blue and
// provides helpers for parsing console link specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	blueerr "blue/internal/errors"
)

// Modes of operation.
const (
	ModeOnboard = "onboard" // full pipeline
	ModeCert    = "cert"    // certificate install only
	ModeAudit   = "audit"   // re-verify a previous deployment
)

// Timing strategies.
const (
	TimingFixed = "fixed"
	TimingPoll  = "poll"
)

// Log formats.
const (
	LogText = "text"
	LogJSON = "json"
)

// Link kinds.
const (
	LinkSerial = "serial"
	LinkTCP    = "tcp"
	LinkSSH    = "ssh"
)

// Credentials are the device login secrets.  They are passed
// explicitly to the steps that need them and never logged.
type Credentials struct {
	Username    string
	Password    string
	NewPassword string // forced on first login of a factory-default device
}

// Missing returns the names of the empty fields.
func (c Credentials) Missing() []string {
	var out []string
	if c.Username == "" {
		out = append(out, "username")
	}
	if c.Password == "" {
		out = append(out, "password")
	}
	if c.NewPassword == "" {
		out = append(out, "new password")
	}
	return out
}

// Config holds every tuneable for a single onboarding run.
type Config struct {
	// ── Console link ─────────────────────────────────────────────────
	Link        string // raw spec: serial:DEV, tcp:HOST:PORT, ssh:[USER@]HOST[:PORT], or DEV
	LinkKind    string
	Device      string // serial device
	Address     string // tcp host:port
	BaudRate    int
	ConnTimeout time.Duration

	// ── SSH console server ───────────────────────────────────────────
	SSHUser        string
	SSHHost        string
	SSHPort        int
	SSHKeyPath     string
	SSHPassword    string // taken from env or file, never a flag
	SSHPromptPass  bool
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Onboarding ───────────────────────────────────────────────────
	Mode         string
	TemplatePath string
	Hostname     string
	Certificate  string
	Timing       string
	PollFactor   int
	Timings      Timings
	Credentials  Credentials

	// ── Output ───────────────────────────────────────────────────────
	Verbose    int
	Quiet      bool
	LogFormat  string
	Stats      bool
	DryRun     bool
	ConfigFile string
}

// Default returns a Config populated with every default value.
func Default() *Config {
	return &Config{
		BaudRate:     DefaultBaudRate,
		ConnTimeout:  DefaultConnTimeout,
		Mode:         ModeOnboard,
		TemplatePath: DefaultTemplatePath,
		Hostname:     DefaultHostname,
		Certificate:  DefaultCertificate,
		Timing:       TimingFixed,
		PollFactor:   DefaultPollFactor,
		Timings:      DefaultTimings(),
		LogFormat:    LogText,
	}
}

// Verbosity converts the output flags to a logger level
// (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func (c *Config) Verbosity() int {
	if c.Quiet {
		return 0
	}
	return 1 + c.Verbose
}

// NeedsTemplate reports whether the mode reads the onboarding script.
func (c *Config) NeedsTemplate() bool {
	return c.Mode == ModeOnboard || c.Mode == ModeAudit
}

// ── Link-spec parser ─────────────────────────────────────────────────

// ParseLink fills the Link* fields from c.Link.
func (c *Config) ParseLink() error {
	kind, target, err := ParseLinkSpec(c.Link)
	if err != nil {
		return err
	}
	c.LinkKind = kind
	switch kind {
	case LinkSerial:
		c.Device = target
	case LinkTCP:
		c.Address = target
	case LinkSSH:
		user, host, port, err := ParseSSHSpec(target)
		if err != nil {
			return err
		}
		c.SSHUser, c.SSHHost, c.SSHPort = user, host, port
	}
	return nil
}

// ParseLinkSpec splits "kind:target".  A spec without a known kind
// prefix is a serial device path, so "/dev/ttyUSB0" and "COM3" work
// unadorned.
func ParseLinkSpec(spec string) (kind, target string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", fmt.Errorf("console link is empty")
	}
	for _, k := range []string{LinkSerial, LinkTCP, LinkSSH} {
		if rest, ok := strings.CutPrefix(spec, k+":"); ok {
			if rest == "" {
				return "", "", fmt.Errorf("console link %q has no target", spec)
			}
			if k == LinkTCP {
				if err := validateHostPort(rest); err != nil {
					return "", "", err
				}
			}
			return k, rest, nil
		}
	}
	return LinkSerial, spec, nil
}

func validateHostPort(addr string) error {
	i := strings.LastIndex(addr, ":")
	if i <= 0 || i == len(addr)-1 {
		return fmt.Errorf("invalid terminal server address %q – expected host:port", addr)
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid terminal server port %q", addr[i+1:])
	}
	return nil
}

// sshRe matches [user@]host[:port].  Console-server users commonly
// carry the line number ("admin:7001@cs1"), so the user part may
// contain colons.
var sshRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:@]+)(?::(\d+))?$`)

// ParseSSHSpec extracts user, host, and port from a string such as
// "admin:7001@console1.example.com:2222".  Port defaults to 22.
func ParseSSHSpec(spec string) (user, host string, port int, err error) {
	m := sshRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid ssh spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = 22
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid ssh port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Link == "" {
		return &blueerr.ConfigError{
			Field:   "port",
			Message: "console link is required",
			Hint:    "pass the serial device, e.g. --port /dev/ttyUSB0 (see --list-ports)",
		}
	}
	if err := c.ParseLink(); err != nil {
		return &blueerr.ConfigError{Field: "port", Value: c.Link, Message: err.Error()}
	}

	switch c.Mode {
	case ModeOnboard, ModeCert, ModeAudit:
	default:
		return &blueerr.ConfigError{
			Field: "mode", Value: c.Mode, Message: "unknown mode",
			Hint: "use onboard, cert, or audit",
		}
	}

	if c.NeedsTemplate() && c.TemplatePath == "" {
		return &blueerr.ConfigError{
			Field:   "template",
			Message: fmt.Sprintf("required in %s mode", c.Mode),
		}
	}

	switch c.Timing {
	case TimingFixed, TimingPoll:
	default:
		return &blueerr.ConfigError{
			Field: "timing", Value: c.Timing, Message: "unknown timing strategy",
			Hint: "use fixed or poll",
		}
	}
	if c.PollFactor < 1 {
		return &blueerr.ConfigError{Field: "poll-factor", Value: c.PollFactor, Message: "must be at least 1"}
	}

	switch c.LogFormat {
	case LogText, LogJSON:
	default:
		return &blueerr.ConfigError{
			Field: "log-format", Value: c.LogFormat, Message: "unknown log format",
			Hint: "use text or json",
		}
	}

	if c.Hostname == "" {
		return &blueerr.ConfigError{Field: "hostname", Message: "must not be empty"}
	}
	if c.Mode == ModeCert && c.Certificate == "" {
		return &blueerr.ConfigError{Field: "certificate", Message: "required in cert mode"}
	}

	if c.Quiet && c.Verbose > 0 {
		return &blueerr.ConfigError{Field: "quiet", Message: "-q and -v are mutually exclusive"}
	}

	if c.LinkKind == LinkSSH && c.SSHUser == "" {
		return &blueerr.ConfigError{
			Field: "port", Value: c.Link, Message: "ssh console link needs a user",
			Hint: "use ssh:user@host[:port]; console servers often take user:line",
		}
	}

	if c.LinkKind == LinkSerial && c.BaudRate <= 0 {
		return &blueerr.ConfigError{Field: "baud", Value: c.BaudRate, Message: "must be positive"}
	}

	return nil
}
