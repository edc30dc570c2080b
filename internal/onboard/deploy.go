package onboard

import (
	"context"
	"strings"

	blueerr "blue/internal/errors"
	"blue/internal/prompt"
	"blue/internal/script"
	"blue/internal/session"
)

// Deploy enters transactional configuration mode and sends every
// script line in order.  Lines are not confirmed individually; the
// audit step checks the result afterwards.
type Deploy struct {
	Script script.Script

	// Sent counts the script lines written by the last Handle call.
	Sent int
}

func (d *Deploy) Name() string { return "deploy" }

func (d *Deploy) Handle(ctx context.Context, sess *session.Session) error {
	d.Sent = 0
	if _, err := sess.Refresh(ctx); err != nil {
		return err
	}

	configPrompt := sess.Classifier.ConfigPrompt()
	out, err := sess.Send(ctx, ConfigTransactionCommand, sess.Timings.ConfigMode,
		prompt.Contains(configPrompt))
	if err != nil {
		return err
	}
	if !strings.Contains(out, configPrompt) {
		sess.Observe(out)
		return &blueerr.ConfigModeNotConfirmedError{Output: out}
	}
	sess.State = prompt.ConfigMode
	sess.Last = out
	sess.Logger.Info("configuration mode confirmed, deploying %d lines", len(d.Script))

	for i, line := range d.Script {
		sess.Logger.Debug("line %d/%d [%s]", i+1, len(d.Script), line.Category)
		if _, err := sess.Send(ctx, line.Text, sess.Timings.ConfigLine, prompt.AtPrompt); err != nil {
			return err
		}
		d.Sent++
	}
	sess.Logger.Info("configuration deployed")
	return nil
}
