package transport

import (
	"context"
	"net"
	"time"
)

// TCPOpener connects to a terminal server's raw TCP port that is
// wired to the device console (reverse telnet without negotiation).
type TCPOpener struct {
	Address string
	Timeout time.Duration
}

// Open dials the terminal server.
func (o *TCPOpener) Open(ctx context.Context) (Link, error) {
	dialer := net.Dialer{Timeout: o.Timeout}
	return dialer.DialContext(ctx, "tcp", o.Address)
}

func (o *TCPOpener) String() string { return "tcp:" + o.Address }
