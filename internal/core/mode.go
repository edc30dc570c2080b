// Package core is the orchestration layer.  It composes the console
// transport and the onboarding steps into complete operational modes
// and provides a builder that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  onboard  →  core  →  cmd (CLI)
//
// The builder in this package is the single dispatch point between
// the CLI and the pipeline.
package core

import (
	"context"

	"blue/internal/onboard"
	"blue/internal/prompt"
)

// Mode represents a complete operational mode of blue (onboard, cert,
// audit, or a dry-run plan).  Each mode owns its full lifecycle from
// opening the console to closing it.
type Mode interface {
	Run(ctx context.Context) (*Result, error)
}

// Result summarises a run.  It is returned alongside the error, so a
// run that fails part way still reports how far it got.
type Result struct {
	Mode  string
	State prompt.State // last classified console state

	Steps      []string // names of the steps that completed
	LinesSent  int
	PnPStopped bool
	Audit      *onboard.AuditReport // nil unless an audit ran

	// Warnings are the non-fatal failures, in the order they occurred.
	Warnings []error
}
