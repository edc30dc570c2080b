// Package errors provides domain-specific error types for blue.
//
// Fatal errors stop the onboarding pipeline at the point of detection.
// Warnings are collected by the orchestrator and surfaced at the end of
// the run without blocking later steps.  [ExitCode] maps both onto the
// documented process exit codes.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrClosed        = errors.New("console is closed")
	ErrTimeout       = errors.New("operation timed out")
	ErrNoCredentials = errors.New("device credentials are not available")
	ErrAuthFailed    = errors.New("authentication failed")
)

// ── Exit codes ───────────────────────────────────────────────────────

const (
	// ExitOK means the run completed with no warnings.
	ExitOK = 0
	// ExitFatal means the pipeline aborted.
	ExitFatal = 1
	// ExitUsage means the command line or configuration was invalid.
	ExitUsage = 2
	// ExitWarnings means the run completed but reported warnings.
	ExitWarnings = 3
)

// ── Fatal errors ─────────────────────────────────────────────────────

// TransportError represents a failure of the console link itself.
type TransportError struct {
	Op   string // "open", "write", "read", "wait", "close"
	Port string // link description, e.g. "serial:/dev/ttyUSB0"
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("console %s %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnrecognizedPromptError is returned when the console output cannot be
// placed in any known session state.
type UnrecognizedPromptError struct {
	Output string // the text that failed to classify
}

func (e *UnrecognizedPromptError) Error() string {
	return fmt.Sprintf("can't determine the state of the console (last output %q); "+
		"try again or check if the device has been onboarded already", tail(e.Output, 80))
}

// ConfigModeNotConfirmedError is returned when the device did not show
// the configuration prompt after the transaction-open command.
type ConfigModeNotConfirmedError struct {
	Output string
}

func (e *ConfigModeNotConfirmedError) Error() string {
	return fmt.Sprintf("configuration mode not confirmed (last output %q); "+
		"check if the device has already been configured, if not try again", tail(e.Output, 80))
}

// ── Warnings ─────────────────────────────────────────────────────────

// AuditMismatchWarning lists the critical configuration lines that were
// not found in the running configuration.
type AuditMismatchWarning struct {
	Missing []string
}

func (w *AuditMismatchWarning) Error() string {
	return fmt.Sprintf("configuration audit not passing: %d line(s) not confirmed: %s",
		len(w.Missing), strings.Join(w.Missing, "; "))
}

// CertificateInstallWarning reports a failed root certificate install.
// Either Err (link failure) or Output (device rejection) is set.
type CertificateInstallWarning struct {
	Output string
	Err    error
}

func (w *CertificateInstallWarning) Error() string {
	if w.Err != nil {
		return fmt.Sprintf("certificate installation failed: %v", w.Err)
	}
	return fmt.Sprintf("certificate installation failed: device replied %q", tail(w.Output, 120))
}

func (w *CertificateInstallWarning) Unwrap() error { return w.Err }

// ── Usage errors ─────────────────────────────────────────────────────

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// UsageError wraps a command-line parsing failure.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a TransportError.
func Wrap(op, port string, err error) *TransportError {
	return &TransportError{Op: op, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsWarning reports whether err consists only of non-fatal warnings.
// Single wraps are followed; a joined error counts as a warning only
// when every member is one.
func IsWarning(err error) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *AuditMismatchWarning, *CertificateInstallWarning:
		return true
	case interface{ Unwrap() []error }:
		errs := e.Unwrap()
		if len(errs) == 0 {
			return false
		}
		for _, m := range errs {
			if !IsWarning(m) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		return IsWarning(e.Unwrap())
	}
	return false
}

// IsFatal reports whether err must abort the pipeline.
func IsFatal(err error) bool {
	return err != nil && !IsWarning(err)
}

// ExitCode maps an error returned by the CLI to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ce *ConfigError
	var ue *UsageError
	if errors.As(err, &ce) || errors.As(err, &ue) {
		return ExitUsage
	}
	if IsWarning(err) {
		return ExitWarnings
	}
	return ExitFatal
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n:]
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use blue/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
