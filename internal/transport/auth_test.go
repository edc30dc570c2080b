package transport

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// TestBuildAuthMethods_ExplicitKey verifies that a key file is loaded.
func TestBuildAuthMethods_ExplicitKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_test")
	writeTestKey(t, keyPath)

	methods, err := BuildAuthMethods(&SSHConfig{KeyPath: keyPath})
	if err != nil {
		t.Fatalf("BuildAuthMethods: %v", err)
	}
	if len(methods) != 1 {
		t.Fatalf("expected one auth method, got %d", len(methods))
	}
}

// TestBuildAuthMethods_Password verifies a configured password is
// offered as both password and keyboard-interactive auth.
func TestBuildAuthMethods_Password(t *testing.T) {
	methods, err := BuildAuthMethods(&SSHConfig{User: "admin:7001", Host: "cs1", Password: "s3cret"})
	if err != nil {
		t.Fatal(err)
	}
	if len(methods) != 2 {
		t.Fatalf("expected password and keyboard-interactive, got %d methods", len(methods))
	}
}

// TestBuildAuthMethods_MissingKey verifies a clear error for a bad path.
func TestBuildAuthMethods_MissingKey(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	_, err := BuildAuthMethods(&SSHConfig{KeyPath: "/nonexistent/key"})
	if err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestBuildAuthMethods_AgentWithoutSocket(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	if _, err := BuildAuthMethods(&SSHConfig{UseAgent: true}); err == nil {
		t.Fatal("expected error when the agent socket is unset")
	}
}

// TestHostKeyCallback_Insecure verifies that host keys are not checked
// unless StrictHostKey is set.
func TestHostKeyCallback_Insecure(t *testing.T) {
	cb, err := hostKeyCallback(&SSHConfig{StrictHostKey: false})
	if err != nil {
		t.Fatal(err)
	}
	if cb == nil {
		t.Fatal("callback should not be nil")
	}
}

func TestHostKeyCallback_Strict(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	hostKey, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}

	khPath := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{"cs1.lab:22"}, hostKey) + "\n"
	if err := os.WriteFile(khPath, []byte(line), 0o600); err != nil {
		t.Fatal(err)
	}

	cb, err := hostKeyCallback(&SSHConfig{StrictHostKey: true, KnownHosts: khPath})
	if err != nil {
		t.Fatal(err)
	}
	addr := fakeAddr("10.0.0.9:22")
	if err := cb("cs1.lab:22", addr, hostKey); err != nil {
		t.Errorf("known host rejected: %v", err)
	}
	if err := cb("cs2.lab:22", addr, hostKey); err == nil {
		t.Error("unknown host accepted")
	}
}

func TestHostKeyCallback_MissingKnownHosts(t *testing.T) {
	_, err := hostKeyCallback(&SSHConfig{
		StrictHostKey: true,
		KnownHosts:    filepath.Join(t.TempDir(), "absent"),
	})
	if err == nil {
		t.Fatal("expected error for a missing known_hosts file")
	}
}

// ── helpers ──────────────────────────────────────────────────────────

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

// writeTestKey writes a fresh unencrypted ed25519 key in OpenSSH format.
func writeTestKey(t *testing.T, path string) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "blue test key")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}
}
