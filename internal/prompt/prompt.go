// Package prompt classifies raw console text into session states.
//
// The console has no framing; the only signal of where the device is
// in its login/mode state machine is the prompt text it echoes.  The
// classifier is a pure, total function over that text.
package prompt

import "strings"

// State is the classified state of a console session.
type State int

const (
	// Unrecognized means none of the known prompts were found.
	Unrecognized State = iota
	// NeedsLogin means the device is asking for a username.
	NeedsLogin
	// ExecMode means a privileged exec prompt ("Router#") is showing.
	ExecMode
	// ConfigMode means a configuration prompt ("Router(config)#") is showing.
	ConfigMode
)

func (s State) String() string {
	switch s {
	case NeedsLogin:
		return "needs-login"
	case ExecMode:
		return "exec"
	case ConfigMode:
		return "config"
	default:
		return "unrecognized"
	}
}

// DefaultHostname is the factory hostname of an unconfigured router.
const DefaultHostname = "Router"

// Markers the device prints during login.
const (
	UsernameMarker    = "Username"
	PasswordMarker    = "Password:"
	NewPasswordMarker = "Enter new password:"
)

// Classifier maps console text to a [State] for a given device hostname.
type Classifier struct {
	Hostname string
}

// New returns a Classifier for hostname, falling back to
// [DefaultHostname] when empty.
func New(hostname string) Classifier {
	if hostname == "" {
		hostname = DefaultHostname
	}
	return Classifier{Hostname: hostname}
}

// ExecPrompt returns the exec-mode prompt, e.g. "Router#".
func (c Classifier) ExecPrompt() string { return c.hostname() + "#" }

// ConfigPrompt returns the configuration prompt, e.g. "Router(config)#".
func (c Classifier) ConfigPrompt() string { return c.hostname() + "(config)#" }

// Classify returns the state shown by text.  Rules are evaluated in
// order and the first match wins, so a login banner that also contains
// an old exec prompt still classifies as NeedsLogin.
func (c Classifier) Classify(text string) State {
	switch {
	case strings.Contains(text, UsernameMarker):
		return NeedsLogin
	case strings.Contains(text, c.ExecPrompt()):
		return ExecMode
	case strings.Contains(text, c.ConfigPrompt()):
		return ConfigMode
	default:
		return Unrecognized
	}
}

func (c Classifier) hostname() string {
	if c.Hostname == "" {
		return DefaultHostname
	}
	return c.Hostname
}

// Classify uses the factory-default hostname.
func Classify(text string) State {
	return Classifier{}.Classify(text)
}

// Recognized reports whether text shows any known state.  It is used
// as the completion predicate when polling for a prompt.
func (c Classifier) Recognized(text string) bool {
	return c.Classify(text) != Unrecognized
}

// AtPrompt reports whether the last non-empty line of text ends with a
// "#" prompt, i.e. the device has finished printing command output and
// is waiting for input again.
func AtPrompt(text string) bool {
	text = strings.TrimRight(text, " \r\n\t")
	if text == "" {
		return false
	}
	if i := strings.LastIndexAny(text, "\r\n"); i >= 0 {
		text = text[i+1:]
	}
	return strings.HasSuffix(text, "#")
}

// Contains returns a predicate that reports whether text contains any
// of the given markers.
func Contains(markers ...string) func(string) bool {
	return func(text string) bool {
		for _, m := range markers {
			if strings.Contains(text, m) {
				return true
			}
		}
		return false
	}
}
