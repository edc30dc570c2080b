// Package sessiontest provides a scripted console for testing the
// onboarding steps without a device.
package sessiontest

import (
	"context"
	"sync"

	"blue/internal/transport"
)

// Console answers each command from a per-command queue of replies and
// records everything it was sent.  When a queue holds one reply left,
// that reply is repeated for later sends of the same command.
type Console struct {
	mu      sync.Mutex
	replies map[string][]string
	errs    map[string]error
	sent    []transport.Command

	// Default answers commands with no scripted reply.
	Default string
}

// New returns a Console whose unscripted replies are def.
func New(def string) *Console {
	return &Console{
		replies: make(map[string][]string),
		errs:    make(map[string]error),
		Default: def,
	}
}

// Reply queues responses for text.
func (c *Console) Reply(text string, responses ...string) *Console {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[text] = append(c.replies[text], responses...)
	return c
}

// Fail makes sends of text return err.
func (c *Console) Fail(text string, err error) *Console {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[text] = err
	return c
}

// Send implements session.Console.  It never sleeps.
func (c *Console) Send(_ context.Context, cmd transport.Command) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sent = append(c.sent, cmd)
	if err := c.errs[cmd.Text]; err != nil {
		return "", err
	}
	q := c.replies[cmd.Text]
	switch len(q) {
	case 0:
		return c.Default, nil
	case 1:
		return q[0], nil
	default:
		c.replies[cmd.Text] = q[1:]
		return q[0], nil
	}
}

// Sent returns every command in send order.
func (c *Console) Sent() []transport.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]transport.Command(nil), c.sent...)
}

// Texts returns the text of every command in send order.
func (c *Console) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, cmd := range c.sent {
		out[i] = cmd.Text
	}
	return out
}

// Count returns how many times text was sent.
func (c *Console) Count(text string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, cmd := range c.sent {
		if cmd.Text == text {
			n++
		}
	}
	return n
}

// Find returns the first command sent with text.
func (c *Console) Find(text string) (transport.Command, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cmd := range c.sent {
		if cmd.Text == text {
			return cmd, true
		}
	}
	return transport.Command{}, false
}
