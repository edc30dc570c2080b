package onboard

import (
	"context"
	"fmt"
	"strings"

	"blue/config"
	blueerr "blue/internal/errors"
	"blue/internal/prompt"
	"blue/internal/session"
)

// LoginState tracks progress through the login exchange.
type LoginState int

const (
	AwaitUsername LoginState = iota
	AwaitPassword
	AwaitForcedPassword
	LoginDone
)

func (s LoginState) String() string {
	switch s {
	case AwaitUsername:
		return "await-username"
	case AwaitPassword:
		return "await-password"
	case AwaitForcedPassword:
		return "await-forced-password"
	case LoginDone:
		return "done"
	default:
		return "unknown"
	}
}

// Login authenticates on the console when the session shows a login
// prompt.  A session that is already in exec or configuration mode is
// left untouched; an unrecognized console state is fatal.
//
// Credentials are only required once the device asks for them.  Missing
// fields are then requested through Prompt, if set.
type Login struct {
	Credentials config.Credentials
	Prompt      func(*config.Credentials) error

	state LoginState
}

func (l *Login) Name() string { return "login" }

// State returns how far the last Handle call got.
func (l *Login) State() LoginState { return l.state }

func (l *Login) Handle(ctx context.Context, sess *session.Session) error {
	l.state = AwaitUsername

	switch sess.State {
	case prompt.ExecMode:
		sess.Logger.Info("user logged in and in exec mode")
		l.state = LoginDone
		return nil
	case prompt.ConfigMode:
		sess.Logger.Info("user logged in and in configuration mode")
		l.state = LoginDone
		return nil
	case prompt.NeedsLogin:
	default:
		return &blueerr.UnrecognizedPromptError{Output: sess.Last}
	}

	sess.Logger.Info("user access verification required")
	if err := l.require(func(c config.Credentials) bool { return c.Username != "" && c.Password != "" }); err != nil {
		return err
	}
	t := sess.Timings.Default

	out, err := sess.SendSecret(ctx, "<username>", l.Credentials.Username, t,
		prompt.Contains(prompt.PasswordMarker))
	if err != nil {
		return err
	}
	l.state = AwaitPassword

	if strings.Contains(out, prompt.PasswordMarker) {
		out, err = sess.SendSecret(ctx, "<password>", l.Credentials.Password, t,
			afterPassword(sess.Classifier))
		if err != nil {
			return err
		}
		l.state = AwaitForcedPassword

		if strings.Contains(out, prompt.NewPasswordMarker) {
			sess.Logger.Info("device requires a new password")
			if err := l.require(func(c config.Credentials) bool { return c.NewPassword != "" }); err != nil {
				return err
			}
			// The device asks for the new password and then for its
			// confirmation.
			if _, err = sess.SendSecret(ctx, "<new password>", l.Credentials.NewPassword, t, nil); err != nil {
				return err
			}
			out, err = sess.SendSecret(ctx, "<new password confirmation>", l.Credentials.NewPassword, t,
				sess.Classifier.Recognized)
			if err != nil {
				return err
			}
		}
	}

	l.state = LoginDone
	sess.Observe(out)
	sess.Logger.Info("login complete")
	return nil
}

// require makes sure ok holds for the credentials, prompting once for
// the missing fields.
func (l *Login) require(ok func(config.Credentials) bool) error {
	if ok(l.Credentials) {
		return nil
	}
	if l.Prompt != nil {
		if err := l.Prompt(&l.Credentials); err != nil {
			return err
		}
		if ok(l.Credentials) {
			return nil
		}
	}
	return fmt.Errorf("%w: missing %s", blueerr.ErrNoCredentials, strings.Join(l.Credentials.Missing(), ", "))
}

func afterPassword(c prompt.Classifier) func(string) bool {
	forced := prompt.Contains(prompt.NewPasswordMarker)
	return func(text string) bool {
		return forced(text) || c.Recognized(text)
	}
}
