// Package onboard implements the individual steps of the onboarding
// pipeline.  Each Step encapsulates one console procedure (wake-up,
// login, service control, deployment, audit, certificate install) and
// operates on a session rather than a raw link, which keeps the steps
// testable with a scripted console.
package onboard

import (
	"context"

	"blue/internal/session"
)

// Step is one stage of the onboarding pipeline.
type Step interface {
	// Name is the short label used in logs, metrics and errors.
	Name() string

	// Handle runs the step against the session.  It blocks for the
	// settle delay of every command it sends.
	Handle(ctx context.Context, sess *session.Session) error
}

// ── Device commands ──────────────────────────────────────────────────

const (
	// ConfigTransactionCommand opens transactional configuration mode.
	ConfigTransactionCommand = "config-transaction"

	// PnPStatusCommand reports tenant state; while discovery is still
	// running its output tells the operator how to stop it.
	PnPStatusCommand = "show sdwan tenant-summary"
	// PnPStopCommand stops the PnP discovery service.
	PnPStopCommand = "pnpa service discovery stop"
	// PnPActivePhrase appears in the status output while discovery runs.
	PnPActivePhrase = "terminate PnP with the following command"

	// PagingOffCommand disables the interactive pager.
	PagingOffCommand = "term length 0"
	// RunningConfigCommand dumps the SD-WAN running configuration.
	RunningConfigCommand = "show sdwan running-config"

	// CertInstallCommand is followed by the certificate file URL.
	CertInstallCommand = "request platform software sdwan root-cert-chain install"
)

// LoggingOffCommands stop console log messages from interleaving with
// command output.
var LoggingOffCommands = []string{
	ConfigTransactionCommand,
	"no logging console",
	"commit",
	"exit",
}
