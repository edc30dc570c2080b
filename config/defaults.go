package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultTemplatePath is where the onboarding script is read from.
	DefaultTemplatePath = "./templates/sdwan_router_onboarding.j2"

	// DefaultCertificate is the root CA chain installed at the end of
	// onboarding, as a device file URL.
	DefaultCertificate = "usb0:ca.crt"

	// DefaultHostname is the factory hostname shown in the prompt.
	DefaultHostname = "Router"

	// DefaultBaudRate is the Cisco console line speed.
	DefaultBaudRate = 9600

	// DefaultConnTimeout bounds TCP and SSH link establishment.
	DefaultConnTimeout = 30 * time.Second

	// DefaultPollFactor scales settle delays into poll budgets.
	DefaultPollFactor = 3

	// DefaultTermLength restores the pager after the audit.
	DefaultTermLength = 24
)

// Settle delays per command type.  The device gives no end-of-response
// marker, so each command waits a fixed time before its output is read.
const (
	DefaultSettle     = 1 * time.Second
	ConfigLineSettle  = 2 * time.Second
	ServiceSettle     = 3 * time.Second
	ConfigModeSettle  = 5 * time.Second
	CertInstallSettle = 10 * time.Second
	CaptureSettle     = 15 * time.Second
	PnPStopSettle     = 180 * time.Second
)

// Timings holds the settle delay for every command type.
type Timings struct {
	Default     time.Duration // wake-up, login, paging
	ConfigLine  time.Duration // each onboarding script line
	Service     time.Duration // PnP status query, logging commands
	ConfigMode  time.Duration // entering transactional configuration
	CertInstall time.Duration // root certificate install
	Capture     time.Duration // running-configuration dump
	PnPStop     time.Duration // stopping the PnP discovery service
}

// DefaultTimings returns the baseline settle delays.
func DefaultTimings() Timings {
	return Timings{
		Default:     DefaultSettle,
		ConfigLine:  ConfigLineSettle,
		Service:     ServiceSettle,
		ConfigMode:  ConfigModeSettle,
		CertInstall: CertInstallSettle,
		Capture:     CaptureSettle,
		PnPStop:     PnPStopSettle,
	}
}
