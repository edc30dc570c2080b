package transport

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"blue/internal/backoff"
	blueerr "blue/internal/errors"
	"blue/internal/metrics"
	"blue/util"
)

// Timing selects how Console.Send decides a response is complete.
type Timing int

const (
	// FixedTiming always waits the full settle delay.
	FixedTiming Timing = iota
	// PollTiming returns as soon as the command's Until predicate
	// matches, waiting at most Settle × PollFactor.
	PollTiming
)

func (t Timing) String() string {
	if t == PollTiming {
		return "poll"
	}
	return "fixed"
}

// DefaultPollFactor scales a command's settle delay into its poll budget.
const DefaultPollFactor = 3

// closeWait bounds how long Close waits for the receive pump to exit.
const closeWait = 2 * time.Second

// Options tune a Console.
type Options struct {
	Timing     Timing
	PollFactor int
	Backoff    *backoff.Backoff
	Logger     *util.Logger
	Metrics    *metrics.Collector
}

// Console is the exclusive owner of an open Link.  A background pump
// moves received bytes into an internal buffer; Send writes a command,
// waits, and returns everything buffered since the previous Send.
//
// Send is not safe for concurrent use: the console protocol is
// half-duplex and the pipeline drives it from a single goroutine.
type Console struct {
	link   Link
	name   string
	opts   Options
	logger *util.Logger

	mu      sync.Mutex
	buf     bytes.Buffer
	readErr error
	closed  bool
	done    chan struct{}
}

// Open acquires the link from opener and starts the receive pump.
func Open(ctx context.Context, opener Opener, opts Options) (*Console, error) {
	link, err := opener.Open(ctx)
	if err != nil {
		return nil, blueerr.Wrap("open", opener.String(), err)
	}
	return NewConsole(link, opener.String(), opts), nil
}

// NewConsole wraps an already-open link.
func NewConsole(link Link, name string, opts Options) *Console {
	if opts.PollFactor <= 0 {
		opts.PollFactor = DefaultPollFactor
	}
	if opts.Backoff == nil {
		opts.Backoff = backoff.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = util.NewLogger(0)
	}
	c := &Console{
		link:   link,
		name:   name,
		opts:   opts,
		logger: logger,
		done:   make(chan struct{}),
	}
	go c.pump()
	return c
}

// Name describes the underlying link.
func (c *Console) Name() string { return c.name }

// Send writes cmd and returns the console output collected after the
// settle wait.  Any failure of the link, or cancellation of ctx while
// waiting, is returned as a *errors.TransportError.
func (c *Console) Send(ctx context.Context, cmd Command) (string, error) {
	c.mu.Lock()
	closed, readErr := c.closed, c.readErr
	c.mu.Unlock()
	if closed {
		return "", blueerr.Wrap("write", c.name, blueerr.ErrClosed)
	}
	if readErr != nil {
		return "", blueerr.Wrap("read", c.name, readErr)
	}

	if cmd.Secret {
		c.logger.Debug("→ <hidden>")
	} else {
		c.logger.Debug("→ %q (settle %v)", cmd.Text, cmd.Settle)
	}

	n, err := c.link.Write([]byte(cmd.Text + LineTerminator))
	c.opts.Metrics.BytesSent(int64(n))
	if err != nil {
		return "", blueerr.Wrap("write", c.name, err)
	}

	start := time.Now()
	if err := c.wait(ctx, cmd); err != nil {
		return "", blueerr.Wrap("wait", c.name, err)
	}
	c.opts.Metrics.CommandSent(time.Since(start))

	out, readErr := c.drain()
	c.logger.Debug("← %q", out)
	if readErr != nil {
		return out, blueerr.Wrap("read", c.name, readErr)
	}
	return out, nil
}

func (c *Console) wait(ctx context.Context, cmd Command) error {
	if c.opts.Timing != PollTiming || cmd.Until == nil {
		return backoff.Sleep(ctx, cmd.Settle)
	}

	budget := cmd.Settle * time.Duration(c.opts.PollFactor)
	err := c.opts.Backoff.Until(ctx, budget, func() bool {
		if c.failed() {
			return true
		}
		return cmd.Until(c.peek())
	})
	switch {
	case err == nil:
		c.opts.Metrics.PollResult(true)
		return nil
	case blueerr.Is(err, blueerr.ErrTimeout):
		// The caller inspects whatever did arrive, as after a fixed settle.
		c.opts.Metrics.PollResult(false)
		c.logger.Debug("no expected response within %v", budget)
		return nil
	default:
		return err
	}
}

// Close stops the pump and releases the link.
func (c *Console) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.link.Close()

	t := time.NewTimer(closeWait)
	defer t.Stop()
	select {
	case <-c.done:
	case <-t.C:
		c.logger.Debug("receive pump for %s did not stop within %v", c.name, closeWait)
	}

	if err != nil {
		return blueerr.Wrap("close", c.name, err)
	}
	return nil
}

// ── receive buffer ───────────────────────────────────────────────────

// pump copies link output into the receive buffer until the link
// fails or is closed.  Serial links return (0, nil) on every read
// timeout, which simply loops.
func (c *Console) pump() {
	defer close(c.done)

	bufp := util.GetBuf()
	defer util.PutBuf(bufp)
	buf := *bufp

	for {
		n, err := c.link.Read(buf)
		if n > 0 {
			c.mu.Lock()
			c.buf.Write(buf[:n])
			c.mu.Unlock()
			c.opts.Metrics.BytesReceived(int64(n))
		}
		if err != nil {
			c.mu.Lock()
			if !c.closed {
				c.readErr = err
			}
			c.mu.Unlock()
			return
		}
	}
}

func (c *Console) peek() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decode(c.buf.Bytes())
}

func (c *Console) failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr != nil
}

func (c *Console) drain() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := decode(c.buf.Bytes())
	c.buf.Reset()
	return out, c.readErr
}

// decode turns raw console bytes into text.  Invalid UTF-8 from line
// noise is replaced, not rejected.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
