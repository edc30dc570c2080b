package core

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"blue/config"
	blueerr "blue/internal/errors"
	"blue/internal/metrics"
	"blue/internal/onboard"
	"blue/internal/prompt"
	"blue/internal/script"
	"blue/internal/session"
	"blue/internal/session/sessiontest"
	"blue/internal/transport"
	"blue/util"
)

var testCreds = config.Credentials{Username: "admin", Password: "admin", NewPassword: "N3w!pass"}

func onboardSteps(s script.Script) []onboard.Step {
	return []onboard.Step{
		onboard.Wake{},
		&onboard.Login{Credentials: testCreds},
		&onboard.StopPnP{},
		onboard.DisableLogging{},
		&onboard.Deploy{Script: s},
		&onboard.Audit{Script: s},
		&onboard.InstallCertificate{Certificate: config.DefaultCertificate},
	}
}

func newPipeline(steps []onboard.Step) *PipelineMode {
	return &PipelineMode{
		Name:       config.ModeOnboard,
		Classifier: prompt.New(""),
		Timings:    config.DefaultTimings(),
		Steps:      steps,
		Logger:     util.NewLogger(0),
		Metrics:    metrics.New(),
	}
}

func runScripted(t *testing.T, m *PipelineMode, c *sessiontest.Console) (*Result, error) {
	t.Helper()
	sess := session.New(c, m.Classifier, m.Timings, m.Logger)
	return m.RunSession(context.Background(), sess)
}

func TestPipeline_CleanRun(t *testing.T) {
	s := script.New("!", "system", " host-name Edge1", "commit")
	c := sessiontest.New("\r\nRouter#").
		Reply(onboard.ConfigTransactionCommand, "\r\nRouter(config)#").
		Reply(onboard.RunningConfigCommand, "system\r\n host-name Edge1\r\nRouter#")

	m := newPipeline(onboardSteps(s))
	res, err := runScripted(t, m, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSteps := []string{"wake", "login", "stop-pnp", "disable-logging", "deploy", "audit", "install-certificate"}
	if diff := cmp.Diff(wantSteps, res.Steps); diff != "" {
		t.Errorf("steps (-want +got):\n%s", diff)
	}
	if res.LinesSent != len(s) {
		t.Errorf("LinesSent = %d, want %d", res.LinesSent, len(s))
	}
	if res.Audit == nil || !res.Audit.Passed() {
		t.Errorf("audit should pass: %+v", res.Audit)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if got := blueerr.ExitCode(err); got != blueerr.ExitOK {
		t.Errorf("exit code = %d", got)
	}
}

// An audit mismatch is a warning and the certificate is still installed.
func TestPipeline_AuditMismatchStillInstallsCertificate(t *testing.T) {
	s := script.New("system", "host-name Edge1", "vbond 10.1.1.1 port 12346")
	c := sessiontest.New("\r\nRouter#").
		Reply(onboard.ConfigTransactionCommand, "\r\nRouter(config)#").
		Reply(onboard.RunningConfigCommand, "system\r\n host-name Edge1\r\nRouter#")

	m := newPipeline(onboardSteps(s))
	res, err := runScripted(t, m, c)

	var am *blueerr.AuditMismatchWarning
	if !blueerr.As(err, &am) {
		t.Fatalf("expected AuditMismatchWarning, got %v", err)
	}
	if diff := cmp.Diff([]string{"vbond 10.1.1.1 port 12346"}, am.Missing); diff != "" {
		t.Errorf("missing (-want +got):\n%s", diff)
	}
	if got := blueerr.ExitCode(err); got != blueerr.ExitWarnings {
		t.Errorf("exit code = %d, want %d", got, blueerr.ExitWarnings)
	}

	cert := (&onboard.InstallCertificate{Certificate: config.DefaultCertificate}).Command()
	if c.Count(cert) != 1 {
		t.Error("certificate install must still be attempted")
	}
	if res.Audit == nil || res.Audit.Passed() {
		t.Errorf("audit report should show the mismatch: %+v", res.Audit)
	}
	if m.Metrics.WarningCount() != 1 {
		t.Errorf("warning count = %d, want 1", m.Metrics.WarningCount())
	}
}

func TestPipeline_AuditAndCertificateWarnings(t *testing.T) {
	s := script.New("vbond 10.1.1.1")
	cert := (&onboard.InstallCertificate{Certificate: config.DefaultCertificate}).Command()
	c := sessiontest.New("\r\nRouter#").
		Reply(onboard.ConfigTransactionCommand, "\r\nRouter(config)#").
		Reply(cert, "% Error: file not found\r\nRouter#")

	res, err := runScripted(t, newPipeline(onboardSteps(s)), c)
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", res.Warnings)
	}
	if !blueerr.IsWarning(err) {
		t.Errorf("joined warnings must still be a warning: %v", err)
	}
}

func TestPipeline_AuditMismatchWithPagerRestoreFailureIsFatal(t *testing.T) {
	s := script.New("system", "vbond 10.1.1.1 port 12346")
	restore := fmt.Sprintf("term length %d", config.DefaultTermLength)
	c := sessiontest.New("\r\nRouter#").
		Reply(onboard.ConfigTransactionCommand, "\r\nRouter(config)#").
		Reply(onboard.RunningConfigCommand, "system\r\nRouter#").
		Fail(restore, blueerr.Wrap("write", "test", fmt.Errorf("broken pipe")))

	m := newPipeline(onboardSteps(s))
	res, err := runScripted(t, m, c)
	if err == nil {
		t.Fatal("expected an error")
	}
	if blueerr.IsWarning(err) {
		t.Errorf("a failed pager restore must not be reported as a warning: %v", err)
	}
	if got := blueerr.ExitCode(err); got != blueerr.ExitFatal {
		t.Errorf("exit code = %d, want %d", got, blueerr.ExitFatal)
	}
	if !strings.HasPrefix(err.Error(), "audit: ") {
		t.Errorf("error %q should name the audit step", err)
	}
	var te *blueerr.TransportError
	if !blueerr.As(err, &te) {
		t.Errorf("transport failure should be kept in the chain: %v", err)
	}

	cert := (&onboard.InstallCertificate{Certificate: config.DefaultCertificate}).Command()
	if c.Count(cert) != 0 {
		t.Error("certificate install must not run after a fatal audit")
	}
	wantSteps := []string{"wake", "login", "stop-pnp", "disable-logging", "deploy"}
	if diff := cmp.Diff(wantSteps, res.Steps); diff != "" {
		t.Errorf("steps (-want +got):\n%s", diff)
	}
}

func TestPipeline_FatalStopsPipeline(t *testing.T) {
	tests := []struct {
		name     string
		console  func() *sessiontest.Console
		wantStep string
		check    func(error) bool
	}{
		{
			name: "unrecognized prompt",
			console: func() *sessiontest.Console {
				return sessiontest.New("rommon 1 >")
			},
			wantStep: "login",
			check: func(err error) bool {
				var e *blueerr.UnrecognizedPromptError
				return blueerr.As(err, &e)
			},
		},
		{
			name: "config mode not confirmed",
			console: func() *sessiontest.Console {
				return sessiontest.New("\r\nRouter#")
			},
			wantStep: "deploy",
			check: func(err error) bool {
				var e *blueerr.ConfigModeNotConfirmedError
				return blueerr.As(err, &e)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.console()
			res, err := runScripted(t, newPipeline(onboardSteps(script.New("system"))), c)
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(err.Error(), tt.wantStep+": ") {
				t.Errorf("error %q should name step %q", err, tt.wantStep)
			}
			if got := blueerr.ExitCode(err); got != blueerr.ExitFatal {
				t.Errorf("exit code = %d, want %d", got, blueerr.ExitFatal)
			}
			if c.Count("system") != 0 {
				t.Error("no configuration may be sent after a fatal error")
			}
			if res.Audit != nil {
				t.Error("audit did not run")
			}
		})
	}
}

// Login with a forced password change, then the certificate install.
func TestPipeline_LoginThenCert(t *testing.T) {
	c := sessiontest.New("\r\nRouter#").
		Reply("", "\r\nUsername: ", "\r\nRouter#").
		Reply("admin", "Password:", "Enter new password:").
		Reply("N3w!pass", "Confirm password:", "\r\nRouter#")

	steps := []onboard.Step{
		onboard.Wake{},
		&onboard.Login{Credentials: testCreds},
		&onboard.InstallCertificate{Certificate: config.DefaultCertificate},
	}
	res, err := runScripted(t, newPipeline(steps), c)
	if err != nil {
		t.Fatal(err)
	}
	if c.Count("N3w!pass") != 2 {
		t.Errorf("new password sent %d times, want 2", c.Count("N3w!pass"))
	}
	if res.State != prompt.ExecMode {
		t.Errorf("final state = %s", res.State)
	}
}

// ── end to end over a loopback terminal server ───────────────────────

// fakeRouter answers console commands on a TCP connection the way a
// factory-default router behind a terminal server would.
func fakeRouter(t *testing.T, running string) (addr string, received chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	received = make(chan string, 64)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		cur := "Router#"
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\r')
			if err != nil {
				close(received)
				return
			}
			cmd := strings.TrimSuffix(line, "\r")
			received <- cmd

			var reply string
			switch cmd {
			case onboard.ConfigTransactionCommand:
				cur = "Router(config)#"
			case "exit", "commit":
				cur = "Router#"
			case onboard.PnPStatusCommand:
				reply = "Tenant summary unavailable\r\n"
			case onboard.RunningConfigCommand:
				reply = running
			}
			fmt.Fprintf(conn, "%s\r\n%s%s", cmd, reply, cur)
		}
	}()
	return ln.Addr().String(), received
}

func TestPipelineMode_Run_TCP(t *testing.T) {
	addr, received := fakeRouter(t, "system\r\n host-name Edge1\r\n")

	tm := config.Timings{}
	for _, d := range []*time.Duration{&tm.Default, &tm.ConfigLine, &tm.Service,
		&tm.ConfigMode, &tm.CertInstall, &tm.Capture, &tm.PnPStop} {
		*d = 50 * time.Millisecond
	}

	s := script.New("system", "host-name Edge1", "commit")
	m := newPipeline(onboardSteps(s))
	m.Opener = &transport.TCPOpener{Address: addr, Timeout: time.Second}
	m.Timings = tm
	m.Options = transport.Options{Metrics: m.Metrics}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Audit == nil || !res.Audit.Passed() {
		t.Errorf("audit should pass: %+v", res.Audit)
	}

	var got []string
	for cmd := range received {
		got = append(got, cmd)
	}
	if !contains(got, "host-name Edge1") || !contains(got, onboard.PagingOffCommand) {
		t.Errorf("router did not receive the expected commands: %q", got)
	}
	if contains(got, onboard.PnPStopCommand) {
		t.Error("PnP stop sent although discovery was not running")
	}
	if m.Metrics.CommandsSent() != int64(len(got)) {
		t.Errorf("CommandsSent = %d, router saw %d", m.Metrics.CommandsSent(), len(got))
	}
}

func TestPipelineMode_Run_OpenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	m := newPipeline(onboardSteps(nil))
	m.Opener = &transport.TCPOpener{Address: addr, Timeout: time.Second}

	_, err = m.Run(context.Background())
	var te *blueerr.TransportError
	if !blueerr.As(err, &te) || te.Op != "open" {
		t.Fatalf("expected open TransportError, got %v", err)
	}
	if m.Metrics.ErrorCount() != 1 {
		t.Errorf("ErrorCount = %d, want 1", m.Metrics.ErrorCount())
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
