package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"blue/util"
)

// SSHConfig holds everything needed to reach a console server port
// over SSH.  Console servers map a login (often "user:port") to one
// serial line and bridge the session's shell to it.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	Password      string // used as-is when set
	PromptPass    bool   // prompt on the terminal when Password is empty
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// SSHOpener opens an interactive SSH session to a console server.
type SSHOpener struct {
	Config *SSHConfig
	Logger *util.Logger
}

// NewSSHOpener fills in defaults for cfg.
func NewSSHOpener(cfg *SSHConfig, logger *util.Logger) *SSHOpener {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHOpener{Config: cfg, Logger: logger}
}

func (o *SSHOpener) String() string {
	return fmt.Sprintf("ssh:%s@%s:%d", o.Config.User, o.Config.Host, o.Config.Port)
}

// Open dials the console server, completes the handshake, and starts a
// shell on a pseudo-terminal.
func (o *SSHOpener) Open(ctx context.Context) (Link, error) {
	cfg := o.Config

	authMethods, err := BuildAuthMethods(cfg)
	if err != nil {
		return nil, fmt.Errorf("ssh auth: %w", err)
	}
	hkCallback, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, fmt.Errorf("ssh hostkey: %w", err)
	}

	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         cfg.ConnTimeout,
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	if o.Logger != nil {
		o.Logger.Debug("SSH: dialing %s as %s", addr, cfg.User)
	}

	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, clientCfg)
	if err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	link, err := startShell(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return link, nil
}

func startShell(client *ssh.Client) (*sshLink, error) {
	sess, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh session: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("ssh stdin: %w", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("ssh stdout: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: DefaultBaudRate,
		ssh.TTY_OP_OSPEED: DefaultBaudRate,
	}
	if err := sess.RequestPty("vt100", 24, 200, modes); err != nil {
		sess.Close()
		return nil, fmt.Errorf("ssh pty: %w", err)
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		return nil, fmt.Errorf("ssh shell: %w", err)
	}

	return &sshLink{client: client, session: sess, stdin: stdin, stdout: stdout}, nil
}

// sshLink adapts an SSH shell session to a Link.
type sshLink struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
}

func (l *sshLink) Read(p []byte) (int, error)  { return l.stdout.Read(p) }
func (l *sshLink) Write(p []byte) (int, error) { return l.stdin.Write(p) }

// Close ends the session and the connection.  The session's own close
// error is ignored because servers routinely answer EOF to it.
func (l *sshLink) Close() error {
	l.session.Close()
	return l.client.Close()
}
