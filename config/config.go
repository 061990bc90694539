// Package config provides the user-facing settings for a sandbox
// session: which tools to include, which credentials to copy, and the
// advisory network metadata.
package config

import (
	"fmt"
	"strings"

	"github.com/victoralfred/gojail/observability"
	"github.com/victoralfred/gojail/pool"
	"github.com/victoralfred/gojail/resilience"
	"github.com/victoralfred/gojail/validation"
)

// Settings describes one sandbox session. It is validated once and
// then consumed read-only by every component.
type Settings struct {
	// Applications are extra tool names to resolve on the search path
	// and copy, with their libraries, into the sandbox.
	Applications []string `yaml:"applications"`

	// SSHKeys are key file basenames to copy into the sandbox root
	// user's ~/.ssh. Empty means copy all keys found.
	SSHKeys []string `yaml:"ssh_keys"`

	// Env are environment variables exported in the sandbox profile.
	Env map[string]string `yaml:"env"`

	// ShellSnippet is an optional custom snippet appended to the
	// sandbox profile verbatim.
	ShellSnippet string `yaml:"shell_snippet"`

	// Network is advisory only. The session records it for operator
	// review; nothing is enforced.
	Network NetworkSettings `yaml:"network"`
}

// NetworkSettings is advisory network metadata.
type NetworkSettings struct {
	Enabled       bool     `yaml:"enabled"`
	AllowedPorts  []int    `yaml:"allowed_ports"`
	AllowedRanges []string `yaml:"allowed_ranges"`
}

// AdvisoryFields renders the advisory metadata as audit-event fields
// for operator review. Nothing in it is enforced.
func (n *NetworkSettings) AdvisoryFields() map[string]string {
	return map[string]string{
		"allowed_ports":  joinPorts(n.AllowedPorts),
		"allowed_ranges": strings.Join(n.AllowedRanges, ","),
	}
}

// SessionConfig aggregates the tunables of the supporting components.
type SessionConfig struct {
	Settings       Settings
	Pool           pool.Config
	InspectLimiter resilience.InspectLimiterConfig
	CircuitBreaker resilience.CircuitBreakerConfig
	Telemetry      observability.TelemetryConfig
	Audit          observability.AuditConfig

	// SearchPath are the directories searched for requested tools.
	// Explicit rather than read from the process environment.
	SearchPath []string

	// BaseApplications are always included ahead of the requested
	// extras; a usable sandbox needs at least a shell.
	BaseApplications []string
}

// DefaultSessionConfig returns the default configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Pool:           pool.DefaultConfig(),
		InspectLimiter: resilience.DefaultInspectLimiterConfig(),
		CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		Telemetry:      observability.DefaultTelemetryConfig(),
		Audit:          observability.DefaultAuditConfig(),
		SearchPath: []string{
			"/usr/local/bin",
			"/usr/bin",
			"/bin",
			"/usr/sbin",
			"/sbin",
		},
		BaseApplications: []string{
			"bash", "sh", "ls", "cat", "cp", "mv", "rm", "mkdir",
			"chmod", "mount", "umount", "env", "grep", "git", "ssh",
		},
	}
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	for _, app := range s.Applications {
		if err := validation.ValidateApplicationName(app); err != nil {
			return fmt.Errorf("application %q: %w", app, err)
		}
	}
	for _, key := range s.SSHKeys {
		if err := validation.ValidateKeyName(key); err != nil {
			return fmt.Errorf("ssh key %q: %w", key, err)
		}
	}
	for name := range s.Env {
		if err := validation.ValidateEnvName(name); err != nil {
			return fmt.Errorf("env %q: %w", name, err)
		}
	}
	for _, port := range s.Network.AllowedPorts {
		if port < 1 || port > 65535 {
			return fmt.Errorf("network port %d out of range", port)
		}
	}
	return nil
}

// Validate validates the aggregate configuration, normalizing zero
// values to defaults.
func (c *SessionConfig) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if c.Pool.Workers <= 0 {
		c.Pool = pool.DefaultConfig()
	}
	if len(c.SearchPath) == 0 {
		c.SearchPath = DefaultSessionConfig().SearchPath
	}
	if len(c.BaseApplications) == 0 {
		c.BaseApplications = DefaultSessionConfig().BaseApplications
	}
	return nil
}
