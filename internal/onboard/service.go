package onboard

import (
	"context"
	"strings"

	"blue/internal/prompt"
	"blue/internal/session"
)

// StopPnP stops the PnP discovery service if the device reports it as
// running.  Discovery shuts down slowly, so the stop command waits for
// the long PnP settle delay.
type StopPnP struct {
	// Stopped reports whether the stop command was issued.
	Stopped bool
}

func (s *StopPnP) Name() string { return "stop-pnp" }

func (s *StopPnP) Handle(ctx context.Context, sess *session.Session) error {
	s.Stopped = false
	if _, err := sess.Refresh(ctx); err != nil {
		return err
	}

	out, err := sess.Send(ctx, PnPStatusCommand, sess.Timings.Service, prompt.AtPrompt)
	if err != nil {
		return err
	}
	if !strings.Contains(out, PnPActivePhrase) {
		sess.Logger.Info("PnP discovery is not running")
		return nil
	}

	sess.Logger.Info("stopping PnP discovery (waiting %s)", sess.Timings.PnPStop)
	// The prompt returns before discovery has shut down, so this waits
	// the full settle delay in every timing mode.
	if _, err := sess.Send(ctx, PnPStopCommand, sess.Timings.PnPStop, nil); err != nil {
		return err
	}
	s.Stopped = true
	sess.Logger.Info("PnP discovery stopped")
	return nil
}

// DisableLogging turns off console logging so that log lines do not
// corrupt the responses of later commands.
type DisableLogging struct{}

func (DisableLogging) Name() string { return "disable-logging" }

func (DisableLogging) Handle(ctx context.Context, sess *session.Session) error {
	if _, err := sess.Refresh(ctx); err != nil {
		return err
	}
	for _, cmd := range LoggingOffCommands {
		if _, err := sess.Send(ctx, cmd, sess.Timings.Service, prompt.AtPrompt); err != nil {
			return err
		}
	}
	sess.Logger.Info("console logging disabled")
	return nil
}
