package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the BLUE_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Device credentials
// are only accepted from the environment, a config file, or an
// interactive prompt, never from flags.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("BLUE_PORT"); v != "" {
		cfg.Link = v
	}
	if v := envInt("BLUE_BAUD"); v > 0 {
		cfg.BaudRate = v
	}
	if v := os.Getenv("BLUE_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("BLUE_TEMPLATE"); v != "" {
		cfg.TemplatePath = v
	}
	if v := os.Getenv("BLUE_HOSTNAME"); v != "" {
		cfg.Hostname = v
	}
	if v := os.Getenv("BLUE_CERTIFICATE"); v != "" {
		cfg.Certificate = v
	}
	if v := os.Getenv("BLUE_TIMING"); v != "" {
		cfg.Timing = v
	}
	if v := envInt("BLUE_POLL_FACTOR"); v > 0 {
		cfg.PollFactor = v
	}

	// Device credentials
	if v := os.Getenv("BLUE_USERNAME"); v != "" {
		cfg.Credentials.Username = v
	}
	if v := os.Getenv("BLUE_PASSWORD"); v != "" {
		cfg.Credentials.Password = v
	}
	if v := os.Getenv("BLUE_NEW_PASSWORD"); v != "" {
		cfg.Credentials.NewPassword = v
	}

	// SSH console server
	if v := os.Getenv("BLUE_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if v := os.Getenv("BLUE_SSH_PASSWORD"); v != "" {
		cfg.SSHPassword = v
	}
	if envBool("BLUE_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("BLUE_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("BLUE_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("BLUE_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if v := os.Getenv("BLUE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
