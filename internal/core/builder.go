package core

import (
	"fmt"

	"blue/config"
	"blue/internal/metrics"
	"blue/internal/onboard"
	"blue/internal/prompt"
	"blue/internal/script"
	"blue/internal/transport"
	"blue/util"
)

// Build constructs the appropriate Mode from a validated configuration.
// It loads the onboarding script for the modes that need it.
func Build(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	var s script.Script
	if cfg.NeedsTemplate() {
		var err error
		if s, err = script.Load(cfg.TemplatePath); err != nil {
			return nil, err
		}
		logger.Verbose("loaded %d lines from %s", len(s), cfg.TemplatePath)
	}

	steps, err := buildSteps(cfg, s)
	if err != nil {
		return nil, err
	}
	opener := buildOpener(cfg, logger)

	if cfg.DryRun {
		return &PlanMode{Name: cfg.Mode, Link: opener.String(), Steps: steps, Script: s}, nil
	}

	return &PipelineMode{
		Name:       cfg.Mode,
		Opener:     opener,
		Options:    buildOptions(cfg, logger, m),
		Classifier: prompt.New(cfg.Hostname),
		Timings:    cfg.Timings,
		Steps:      steps,
		Logger:     logger,
		Metrics:    m,
	}, nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildSteps(cfg *config.Config, s script.Script) ([]onboard.Step, error) {
	login := &onboard.Login{Credentials: cfg.Credentials, Prompt: config.NewTerminalPrompter().Fill}

	switch cfg.Mode {
	case config.ModeOnboard:
		return []onboard.Step{
			onboard.Wake{},
			login,
			&onboard.StopPnP{},
			onboard.DisableLogging{},
			&onboard.Deploy{Script: s},
			&onboard.Audit{Script: s},
			&onboard.InstallCertificate{Certificate: cfg.Certificate},
		}, nil
	case config.ModeCert:
		return []onboard.Step{
			onboard.Wake{},
			login,
			&onboard.InstallCertificate{Certificate: cfg.Certificate},
		}, nil
	case config.ModeAudit:
		return []onboard.Step{
			onboard.Wake{},
			login,
			&onboard.Audit{Script: s},
		}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

// ── shared helpers ───────────────────────────────────────────────────

// buildOpener creates the right transport.Opener for the console link.
func buildOpener(cfg *config.Config, logger *util.Logger) transport.Opener {
	switch cfg.LinkKind {
	case config.LinkTCP:
		return &transport.TCPOpener{Address: cfg.Address, Timeout: cfg.ConnTimeout}
	case config.LinkSSH:
		return transport.NewSSHOpener(&transport.SSHConfig{
			User:          cfg.SSHUser,
			Host:          cfg.SSHHost,
			Port:          cfg.SSHPort,
			KeyPath:       cfg.SSHKeyPath,
			Password:      cfg.SSHPassword,
			PromptPass:    cfg.SSHPromptPass,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.ConnTimeout,
		}, logger)
	default:
		return &transport.SerialOpener{Device: cfg.Device, BaudRate: cfg.BaudRate}
	}
}

func buildOptions(cfg *config.Config, logger *util.Logger, m *metrics.Collector) transport.Options {
	timing := transport.FixedTiming
	if cfg.Timing == config.TimingPoll {
		timing = transport.PollTiming
	}
	return transport.Options{
		Timing:     timing,
		PollFactor: cfg.PollFactor,
		Logger:     logger,
		Metrics:    m,
	}
}
