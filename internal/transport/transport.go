// Package transport owns the console link.  Openers handle the "how"
// of reaching the device console (a local serial port, a terminal
// server's raw TCP port, or a console server's SSH service) and the
// Console type turns any of them into the half-duplex send-and-collect
// primitive the onboarding steps are written against.
package transport

import (
	"context"
	"io"
	"time"
)

// Link is a raw, unframed byte stream to a device console.
type Link interface {
	io.ReadWriteCloser
}

// Opener establishes a Link.  Implementations include serial ports,
// terminal-server TCP ports and console-server SSH sessions.
type Opener interface {
	// Open acquires exclusive use of the console link.
	Open(ctx context.Context) (Link, error)

	// String describes the link for logs and errors,
	// e.g. "serial:/dev/ttyUSB0".
	String() string
}

// Command is a single line sent to the console.
type Command struct {
	// Text is written followed by a carriage return.
	Text string

	// Settle is how long to wait before collecting the response.  In
	// poll timing it is the baseline that the wait budget scales from.
	Settle time.Duration

	// Until optionally reports whether the collected output already
	// holds the expected response.  Only consulted in poll timing.
	Until func(output string) bool

	// Secret hides Text from logs.
	Secret bool
}

// LineTerminator ends every command written to the console.
const LineTerminator = "\r"

// CtrlC interrupts whatever the console is doing and returns to a prompt.
const CtrlC = "\x03"
