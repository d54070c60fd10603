package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the settings file read when --config is not given.
const DefaultPath = ".sastforge.yml"

// Settings holds persistent CLI defaults loaded from a config file.
type Settings struct {
	Tool         string         `yaml:"tool"`   // bandit or semgrep
	Format       string         `yaml:"format"` // text, json, sarif
	ScanTimeout  *time.Duration `yaml:"scan_timeout"` // nil = unset, 0 = unbounded
	CloneTimeout time.Duration  `yaml:"clone_timeout"`
	CloneDepth   int            `yaml:"clone_depth"` // 0 = full history

	// Client side of the remediation service
	Remediation *RemediationConfig `yaml:"remediation,omitempty"`

	// Server side, used by the serve command
	Service *ServiceConfig `yaml:"service,omitempty"`
}

// RemediationConfig controls how suggestions are requested.
type RemediationConfig struct {
	Endpoint    string        `yaml:"endpoint,omitempty"` // literal or "env:VAR_NAME"
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Model       string        `yaml:"model,omitempty"`
	MaxLength   int           `yaml:"max_length,omitempty"`
	Temperature *float64      `yaml:"temperature,omitempty"` // nil = service default
}

// ServiceConfig controls the remediation HTTP service.
type ServiceConfig struct {
	Listen         string        `yaml:"listen,omitempty"`      // default ":9000"
	BackendURL     string        `yaml:"backend_url,omitempty"` // literal or "env:VAR_NAME"
	BackendTimeout time.Duration `yaml:"backend_timeout,omitempty"`
}

// LoadSettings reads a YAML config file into Settings.
// If the file does not exist, it returns zero-value Settings and nil error.
// "env:VAR" references are resolved before returning.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := s.resolveEnv(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &s, nil
}

// RemediationOrZero returns the remediation section, never nil.
func (s *Settings) RemediationOrZero() RemediationConfig {
	if s.Remediation == nil {
		return RemediationConfig{}
	}
	return *s.Remediation
}

// ServiceOrZero returns the service section, never nil.
func (s *Settings) ServiceOrZero() ServiceConfig {
	if s.Service == nil {
		return ServiceConfig{}
	}
	return *s.Service
}

func (s *Settings) resolveEnv() error {
	if s.Remediation != nil {
		v, err := ResolveEnv(s.Remediation.Endpoint)
		if err != nil {
			return fmt.Errorf("remediation.endpoint: %w", err)
		}
		s.Remediation.Endpoint = v
	}
	if s.Service != nil {
		v, err := ResolveEnv(s.Service.BackendURL)
		if err != nil {
			return fmt.Errorf("service.backend_url: %w", err)
		}
		s.Service.BackendURL = v
	}
	return nil
}

// ResolveEnv expands an "env:VAR_NAME" value. Other values pass through.
func ResolveEnv(v string) (string, error) {
	if !strings.HasPrefix(v, "env:") {
		return v, nil
	}
	key := strings.TrimPrefix(v, "env:")
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("env var %q is not set", key)
	}
	return val, nil
}
