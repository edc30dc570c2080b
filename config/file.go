package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML config file.  Pointers and empty strings
// mean "not set" so that only explicit values override defaults.
type fileConfig struct {
	Port        string `yaml:"port"`
	Baud        int    `yaml:"baud"`
	Mode        string `yaml:"mode"`
	Template    string `yaml:"template"`
	Hostname    string `yaml:"hostname"`
	Certificate string `yaml:"certificate"`
	Timing      string `yaml:"timing"`
	PollFactor  int    `yaml:"poll_factor"`
	LogFormat   string `yaml:"log_format"`

	Credentials struct {
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		NewPassword string `yaml:"new_password"`
	} `yaml:"credentials"`

	SSH struct {
		Key           string `yaml:"key"`
		Password      string `yaml:"password"`
		Agent         *bool  `yaml:"agent"`
		StrictHostKey *bool  `yaml:"strict_host_key"`
		KnownHosts    string `yaml:"known_hosts"`
	} `yaml:"ssh"`

	Timings map[string]string `yaml:"timings"`
}

// LoadFile overlays the YAML file at path onto cfg.
//
// Example:
//
//	port: /dev/ttyUSB0
//	template: ./templates/branch.j2
//	credentials:
//	  username: admin
//	  password: admin
//	  new_password: Str0ng!Passw0rd
//	timings:
//	  pnp_stop: 240s
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Link, fc.Port)
	setString(&cfg.Mode, fc.Mode)
	setString(&cfg.TemplatePath, fc.Template)
	setString(&cfg.Hostname, fc.Hostname)
	setString(&cfg.Certificate, fc.Certificate)
	setString(&cfg.Timing, fc.Timing)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.Baud > 0 {
		cfg.BaudRate = fc.Baud
	}
	if fc.PollFactor > 0 {
		cfg.PollFactor = fc.PollFactor
	}

	setString(&cfg.Credentials.Username, fc.Credentials.Username)
	setString(&cfg.Credentials.Password, fc.Credentials.Password)
	setString(&cfg.Credentials.NewPassword, fc.Credentials.NewPassword)

	setString(&cfg.SSHKeyPath, fc.SSH.Key)
	setString(&cfg.SSHPassword, fc.SSH.Password)
	setString(&cfg.KnownHostsPath, fc.SSH.KnownHosts)
	if fc.SSH.Agent != nil {
		cfg.UseSSHAgent = *fc.SSH.Agent
	}
	if fc.SSH.StrictHostKey != nil {
		cfg.StrictHostKey = *fc.SSH.StrictHostKey
	}

	return applyTimings(&cfg.Timings, fc.Timings)
}

// applyTimings parses duration overrides keyed by command type.
func applyTimings(t *Timings, overrides map[string]string) error {
	fields := map[string]*time.Duration{
		"default":      &t.Default,
		"config_line":  &t.ConfigLine,
		"service":      &t.Service,
		"config_mode":  &t.ConfigMode,
		"cert_install": &t.CertInstall,
		"capture":      &t.Capture,
		"pnp_stop":     &t.PnPStop,
	}
	for key, raw := range overrides {
		dst, ok := fields[key]
		if !ok {
			return fmt.Errorf("timings: unknown key %q", key)
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("timings.%s: %w", key, err)
		}
		if d < 0 {
			return fmt.Errorf("timings.%s: must not be negative", key)
		}
		*dst = d
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
