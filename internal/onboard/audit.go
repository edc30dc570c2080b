package onboard

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"blue/config"
	blueerr "blue/internal/errors"
	"blue/internal/prompt"
	"blue/internal/script"
	"blue/internal/session"
)

// AuditReport is the outcome of reconciling the critical script lines
// against the observed running configuration.  Both slices hold each
// distinct line once, in script order.
type AuditReport struct {
	Confirmed []script.Line
	Missing   []script.Line
}

// Passed reports whether every critical line was confirmed.
func (r AuditReport) Passed() bool { return len(r.Missing) == 0 }

// MissingTexts returns the text of every unconfirmed line.
func (r AuditReport) MissingTexts() []string {
	out := make([]string, len(r.Missing))
	for i, l := range r.Missing {
		out[i] = l.Text
	}
	return out
}

// Normalize strips whitespace and quote characters so that expected and
// observed lines compare equal despite re-spacing and re-quoting by the
// device.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '"' || r == '\'' {
			return -1
		}
		return r
	}, s)
}

// Reconcile confirms each critical line of s whose normalized text is
// a substring of at least one normalized observed line.  Structural
// lines are never evaluated.
func Reconcile(s script.Script, observed []string) AuditReport {
	norm := make([]string, 0, len(observed))
	for _, o := range observed {
		if n := Normalize(o); n != "" {
			norm = append(norm, n)
		}
	}

	var r AuditReport
	seen := make(map[string]bool)
	for _, line := range s.Critical() {
		if seen[line.Text] {
			continue
		}
		seen[line.Text] = true

		want := Normalize(line.Text)
		if confirmed(want, norm) {
			r.Confirmed = append(r.Confirmed, line)
		} else {
			r.Missing = append(r.Missing, line)
		}
	}
	return r
}

func confirmed(want string, observed []string) bool {
	for _, o := range observed {
		if strings.Contains(o, want) {
			return true
		}
	}
	return false
}

// SplitLines splits console output on any line terminator.
func SplitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
}

// Audit re-reads the running configuration and reconciles it against
// the script.  A mismatch is returned as *errors.AuditMismatchWarning.
// The pager is restored whatever the outcome.
type Audit struct {
	Script script.Script

	// Report holds the result of the last Handle call.
	Report AuditReport
}

func (a *Audit) Name() string { return "audit" }

func (a *Audit) Handle(ctx context.Context, sess *session.Session) (err error) {
	a.Report = AuditReport{}

	if _, err := sess.Send(ctx, PagingOffCommand, sess.Timings.Default, prompt.AtPrompt); err != nil {
		return err
	}
	defer func() {
		restore := fmt.Sprintf("term length %d", config.DefaultTermLength)
		if _, rerr := sess.Send(ctx, restore, sess.Timings.Default, prompt.AtPrompt); rerr != nil {
			err = blueerr.Join(err, fmt.Errorf("restore paging: %w", rerr))
		}
	}()

	sess.Logger.Info("reading running configuration (waiting %s)", sess.Timings.Capture)
	out, err := sess.Send(ctx, RunningConfigCommand, sess.Timings.Capture, prompt.AtPrompt)
	if err != nil {
		return err
	}

	a.Report = Reconcile(a.Script, SplitLines(out))
	if a.Report.Passed() {
		sess.Logger.Info("configuration audit passed (%d lines confirmed)", len(a.Report.Confirmed))
		return nil
	}

	sess.Logger.Warn("configuration audit not passing: %d of %d lines not confirmed",
		len(a.Report.Missing), len(a.Report.Missing)+len(a.Report.Confirmed))
	for _, l := range a.Report.Missing {
		sess.Logger.Warn("  missing: %s", l.Text)
	}
	return &blueerr.AuditMismatchWarning{Missing: a.Report.MissingTexts()}
}
