package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	blueerr "blue/internal/errors"
)

// Prompter asks the operator for missing device credentials.
type Prompter struct {
	In           io.Reader // username is read as a plain line
	Out          io.Writer // prompts
	Fd           int       // terminal used for hidden password input
	IsTerminal   func(fd int) bool
	ReadPassword func(fd int) ([]byte, error)
}

// NewTerminalPrompter prompts on the process's stdin/stderr.
func NewTerminalPrompter() *Prompter {
	return &Prompter{
		In:           os.Stdin,
		Out:          os.Stderr,
		Fd:           int(os.Stdin.Fd()),
		IsTerminal:   term.IsTerminal,
		ReadPassword: term.ReadPassword,
	}
}

// Fill prompts for every empty field of creds.  It fails with
// [blueerr.ErrNoCredentials] when input is not an interactive terminal.
func (p *Prompter) Fill(creds *Credentials) error {
	missing := creds.Missing()
	if len(missing) == 0 {
		return nil
	}
	if p.IsTerminal == nil || !p.IsTerminal(p.Fd) {
		return fmt.Errorf("%w: missing %s (set BLUE_USERNAME, BLUE_PASSWORD, BLUE_NEW_PASSWORD or use --config)",
			blueerr.ErrNoCredentials, strings.Join(missing, ", "))
	}

	if creds.Username == "" {
		fmt.Fprint(p.Out, "Device username: ")
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading username: %w", err)
		}
		creds.Username = strings.TrimSpace(line)
	}
	if creds.Password == "" {
		pass, err := p.secret("Device password: ")
		if err != nil {
			return err
		}
		creds.Password = pass
	}
	if creds.NewPassword == "" {
		pass, err := p.secret("New device password (used if a change is forced): ")
		if err != nil {
			return err
		}
		creds.NewPassword = pass
	}
	return nil
}

func (p *Prompter) secret(label string) (string, error) {
	fmt.Fprint(p.Out, label)
	b, err := p.ReadPassword(p.Fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
