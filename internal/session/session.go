// Package session represents one console session: the exclusive
// console handle, the classified state of the device, and the timing
// profile every step sends with.
//
// Onboarding steps operate on a Session rather than on a transport
// directly, so they can be driven by a scripted console in tests.
package session

import (
	"context"
	"time"

	"blue/config"
	"blue/internal/prompt"
	"blue/internal/transport"
	"blue/util"
)

// Console is the blocking send-and-collect primitive.
// *transport.Console implements it.
type Console interface {
	Send(ctx context.Context, cmd transport.Command) (string, error)
}

// Session encapsulates the runtime context for a single device.
type Session struct {
	Console    Console
	Classifier prompt.Classifier
	Timings    config.Timings
	Logger     *util.Logger

	// State is the most recently classified console state.  Only the
	// orchestrator and the login handler update it, via Observe.
	State prompt.State
	// Last is the text State was derived from.
	Last string
}

// New creates a Session bound to the given console.
func New(console Console, classifier prompt.Classifier, timings config.Timings, logger *util.Logger) *Session {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &Session{
		Console:    console,
		Classifier: classifier,
		Timings:    timings,
		Logger:     logger,
	}
}

// Send writes text and returns the collected response.  until is the
// optional completion predicate used in poll timing.
func (s *Session) Send(ctx context.Context, text string, settle time.Duration, until func(string) bool) (string, error) {
	s.Logger.Verbose("sending command: %s", text)
	return s.Console.Send(ctx, transport.Command{Text: text, Settle: settle, Until: until})
}

// SendSecret is Send for credentials; label replaces the text in logs.
func (s *Session) SendSecret(ctx context.Context, label, secret string, settle time.Duration, until func(string) bool) (string, error) {
	s.Logger.Verbose("sending %s", label)
	return s.Console.Send(ctx, transport.Command{Text: secret, Settle: settle, Until: until, Secret: true})
}

// Refresh sends an empty line to bring the prompt back.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	return s.Console.Send(ctx, transport.Command{Settle: s.Timings.Default, Until: prompt.AtPrompt})
}

// Observe classifies text and records the result as the current state.
func (s *Session) Observe(text string) prompt.State {
	s.State = s.Classifier.Classify(text)
	s.Last = text
	s.Logger.Debug("console state: %s", s.State)
	return s.State
}
