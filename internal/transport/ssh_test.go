package transport

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

// startConsoleServer runs a minimal SSH server that accepts the given
// password, grants a pty and shell, and answers every "\r"-terminated
// line with reply.
func startConsoleServer(t *testing.T, password, reply string) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(_ ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if string(pass) == password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConsole(conn, cfg, reply)
		}
	}()
	return ln.Addr().String()
}

func serveConsole(conn net.Conn, cfg *ssh.ServerConfig, reply string) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "session" {
			nc.Reject(ssh.UnknownChannelType, "session only") //nolint:errcheck
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			return
		}
		go func() {
			for req := range requests {
				req.Reply(req.Type == "pty-req" || req.Type == "shell", nil) //nolint:errcheck
			}
		}()
		go func() {
			defer ch.Close()
			r := bufio.NewReader(ch)
			for {
				if _, err := r.ReadString('\r'); err != nil {
					return
				}
				if _, err := ch.Write([]byte(reply)); err != nil {
					return
				}
			}
		}()
	}
}

func TestSSHOpener_Session(t *testing.T) {
	addr := startConsoleServer(t, "s3cret", "\r\nRouter#")
	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	opener := NewSSHOpener(&SSHConfig{
		User:        "admin:7001",
		Host:        host,
		Port:        port,
		Password:    "s3cret",
		ConnTimeout: 2 * time.Second,
	}, nil)

	c, err := Open(context.Background(), opener, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	out, err := c.Send(context.Background(), Command{Text: "", Settle: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(out, "Router#") {
		t.Errorf("output = %q", out)
	}
	if !strings.HasPrefix(c.Name(), "ssh:admin:7001@127.0.0.1:") {
		t.Errorf("name = %q", c.Name())
	}
}

func TestSSHOpener_WrongPassword(t *testing.T) {
	addr := startConsoleServer(t, "s3cret", "")
	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	opener := NewSSHOpener(&SSHConfig{
		User: "admin", Host: host, Port: port, Password: "wrong", ConnTimeout: 2 * time.Second,
	}, nil)
	if _, err := opener.Open(context.Background()); err == nil {
		t.Fatal("expected handshake failure")
	}
}

func TestNewSSHOpener_Defaults(t *testing.T) {
	o := NewSSHOpener(&SSHConfig{User: "u", Host: "cs1"}, nil)
	if o.Config.Port != 22 {
		t.Errorf("port = %d, want 22", o.Config.Port)
	}
	if o.Config.ConnTimeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", o.Config.ConnTimeout)
	}
	if o.String() != "ssh:u@cs1:22" {
		t.Errorf("String() = %q", o.String())
	}
}
