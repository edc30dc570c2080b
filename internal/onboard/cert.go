package onboard

import (
	"context"
	"strings"

	blueerr "blue/internal/errors"
	"blue/internal/prompt"
	"blue/internal/session"
)

// CertFailureMarkers in the install output mean the device rejected
// the command.  Matching is case-insensitive.
var CertFailureMarkers = []string{"% Invalid", "% Error", "failed"}

// InstallCertificate installs the root CA chain.  Any failure other
// than cancellation is returned as *errors.CertificateInstallWarning so
// the run can still complete; the step can be repeated on its own later.
type InstallCertificate struct {
	Certificate string // device file URL, e.g. usb0:ca.crt
}

func (c *InstallCertificate) Name() string { return "install-certificate" }

// Command returns the install command line.
func (c *InstallCertificate) Command() string {
	return CertInstallCommand + " " + c.Certificate
}

func (c *InstallCertificate) Handle(ctx context.Context, sess *session.Session) error {
	out, err := sess.Send(ctx, c.Command(), sess.Timings.CertInstall, prompt.AtPrompt)
	if err != nil {
		if blueerr.Is(err, context.Canceled) || blueerr.Is(err, context.DeadlineExceeded) {
			return err
		}
		sess.Logger.Error("certificate installation failed, correct the issue and run --mode=cert")
		return &blueerr.CertificateInstallWarning{Output: out, Err: err}
	}
	if certFailed(out) {
		sess.Logger.Error("certificate installation failed, correct the issue and run --mode=cert")
		return &blueerr.CertificateInstallWarning{Output: out}
	}
	sess.Logger.Info("certificate installed")
	return nil
}

func certFailed(out string) bool {
	lower := strings.ToLower(out)
	for _, m := range CertFailureMarkers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
