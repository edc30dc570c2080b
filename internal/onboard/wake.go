package onboard

import (
	"context"

	"blue/internal/session"
	"blue/internal/transport"
)

// Wake interrupts whatever the console is doing and brings up a fresh
// prompt, then records the classified startup state on the session.
type Wake struct{}

func (Wake) Name() string { return "wake" }

func (Wake) Handle(ctx context.Context, sess *session.Session) error {
	if _, err := sess.SendSecret(ctx, "Ctrl-C", transport.CtrlC, sess.Timings.Default, nil); err != nil {
		return err
	}
	out, err := sess.Send(ctx, "", sess.Timings.Default, sess.Classifier.Recognized)
	if err != nil {
		return err
	}
	state := sess.Observe(out)
	sess.Logger.Info("console state: %s", state)
	return nil
}
