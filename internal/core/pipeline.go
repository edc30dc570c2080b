package core

import (
	"context"
	"fmt"

	"blue/config"
	blueerr "blue/internal/errors"
	"blue/internal/metrics"
	"blue/internal/onboard"
	"blue/internal/prompt"
	"blue/internal/session"
	"blue/internal/transport"
	"blue/util"
)

// PipelineMode opens one console and runs its steps in order against
// it.  A fatal step error stops the pipeline; warnings are collected
// and the remaining steps still run.
type PipelineMode struct {
	Name       string
	Opener     transport.Opener
	Options    transport.Options
	Classifier prompt.Classifier
	Timings    config.Timings
	Steps      []onboard.Step
	Logger     *util.Logger
	Metrics    *metrics.Collector
}

// Run opens the console, drives every step, and closes the console.
func (m *PipelineMode) Run(ctx context.Context) (*Result, error) {
	m.Logger.Info("opening console %s", m.Opener)

	console, err := transport.Open(ctx, m.Opener, m.Options)
	if err != nil {
		m.Metrics.RecordError(err.Error())
		return &Result{Mode: m.Name}, err
	}
	defer func() {
		if err := console.Close(); err != nil {
			m.Logger.Verbose("%v", err)
		}
	}()

	m.Logger.Verbose("console open (%s timing)", m.Options.Timing)
	sess := session.New(console, m.Classifier, m.Timings, m.Logger)
	return m.RunSession(ctx, sess)
}

// RunSession drives the steps against an existing session.
func (m *PipelineMode) RunSession(ctx context.Context, sess *session.Session) (*Result, error) {
	res := &Result{Mode: m.Name}
	defer m.collect(res, sess)

	for _, step := range m.Steps {
		m.Metrics.StepStarted(step.Name())
		m.Logger.Verbose("── %s ──", step.Name())

		err := step.Handle(ctx, sess)
		switch {
		case err == nil:
		case blueerr.IsWarning(err):
			m.Metrics.RecordWarning()
			m.Logger.Warn("%s: %v", step.Name(), err)
			res.Warnings = append(res.Warnings, err)
		default:
			m.Metrics.RecordError(err.Error())
			return res, fmt.Errorf("%s: %w", step.Name(), err)
		}
		res.Steps = append(res.Steps, step.Name())
	}

	if len(res.Warnings) > 0 {
		return res, blueerr.Join(res.Warnings...)
	}
	return res, nil
}

// collect copies step outcomes into res.
func (m *PipelineMode) collect(res *Result, sess *session.Session) {
	res.State = sess.State
	for _, step := range m.Steps {
		switch s := step.(type) {
		case *onboard.StopPnP:
			res.PnPStopped = s.Stopped
		case *onboard.Deploy:
			res.LinesSent = s.Sent
		case *onboard.Audit:
			if done(res, s) {
				report := s.Report
				res.Audit = &report
			}
		}
	}
}

func done(res *Result, step onboard.Step) bool {
	for _, name := range res.Steps {
		if name == step.Name() {
			return true
		}
	}
	return false
}
