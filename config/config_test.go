package config

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSettings_Validate(t *testing.T) {
	s := Settings{
		Applications: []string{"python3", "vim"},
		SSHKeys:      []string{"id_ed25519"},
		Env:          map[string]string{"EDITOR": "vim"},
		Network:      NetworkSettings{AllowedPorts: []int{443}},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
}

func TestSettings_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{"path application", Settings{Applications: []string{"/usr/bin/bash"}}},
		{"path ssh key", Settings{SSHKeys: []string{"../id_rsa"}}},
		{"bad env name", Settings{Env: map[string]string{"1BAD": "x"}}},
		{"bad port", Settings{Network: NetworkSettings{AllowedPorts: []int{70000}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.settings.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSessionConfig_Validate_Normalizes(t *testing.T) {
	var cfg SessionConfig
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Pool.Workers <= 0 {
		t.Error("zero pool config not normalized")
	}
	if len(cfg.SearchPath) == 0 {
		t.Error("empty search path not normalized")
	}
	if len(cfg.BaseApplications) == 0 {
		t.Error("empty base application list not normalized")
	}
}

func TestSampleSettings_RoundTrips(t *testing.T) {
	data := SampleSettings()
	if len(data) == 0 {
		t.Fatal("empty sample settings")
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		t.Fatalf("sample settings do not parse: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("sample settings do not validate: %v", err)
	}
}

func TestRenderProfile(t *testing.T) {
	s := Settings{
		Env:          map[string]string{"B_VAR": "two", "A_VAR": "o'ne"},
		ShellSnippet: "alias ll='ls -la'",
	}

	profile := RenderProfile(&s)

	if !strings.Contains(profile, `export A_VAR='o'\''ne'`) {
		t.Errorf("single quotes not escaped:\n%s", profile)
	}
	// Deterministic ordering: A_VAR before B_VAR regardless of map order.
	if strings.Index(profile, "A_VAR") > strings.Index(profile, "B_VAR") {
		t.Errorf("env exports not sorted:\n%s", profile)
	}
	if !strings.Contains(profile, "alias ll='ls -la'") {
		t.Errorf("custom snippet missing:\n%s", profile)
	}
}

func TestRenderProfile_NetworkAdvisory(t *testing.T) {
	s := Settings{
		Network: NetworkSettings{
			Enabled:       true,
			AllowedPorts:  []int{80, 443},
			AllowedRanges: []string{"10.0.0.0/8"},
		},
	}

	profile := RenderProfile(&s)

	if !strings.Contains(profile, "GOJAIL_NET_PORTS='80,443'") {
		t.Errorf("advisory ports missing:\n%s", profile)
	}
	if !strings.Contains(profile, "GOJAIL_NET_RANGES='10.0.0.0/8'") {
		t.Errorf("advisory ranges missing:\n%s", profile)
	}
}

func TestNetworkSettings_AdvisoryFields(t *testing.T) {
	n := NetworkSettings{
		Enabled:       true,
		AllowedPorts:  []int{80, 443},
		AllowedRanges: []string{"10.0.0.0/8", "192.168.0.0/16"},
	}

	fields := n.AdvisoryFields()

	if fields["allowed_ports"] != "80,443" {
		t.Errorf("allowed_ports = %q, want 80,443", fields["allowed_ports"])
	}
	if fields["allowed_ranges"] != "10.0.0.0/8,192.168.0.0/16" {
		t.Errorf("allowed_ranges = %q, want both ranges", fields["allowed_ranges"])
	}
}

func TestRenderProfile_Deterministic(t *testing.T) {
	s := Settings{Env: map[string]string{"X": "1", "Y": "2", "Z": "3"}}
	first := RenderProfile(&s)
	for i := 0; i < 10; i++ {
		if got := RenderProfile(&s); got != first {
			t.Fatal("RenderProfile output varies between runs")
		}
	}
}
