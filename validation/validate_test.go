package validation

import (
	"errors"
	"testing"
)

func TestValidateApplicationName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"simple", "bash", nil},
		{"with digits", "python3", nil},
		{"with dash", "clang-format", nil},
		{"empty", "", ErrInvalidName},
		{"absolute path", "/usr/bin/bash", ErrInvalidName},
		{"relative path", "bin/bash", ErrInvalidName},
		{"dot", ".", ErrPathTraversal},
		{"dotdot", "..", ErrPathTraversal},
		{"whitespace", "ba sh", ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateApplicationName(tt.input)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateApplicationName(%q) = %v, want nil", tt.input, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateApplicationName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateKeyName(t *testing.T) {
	if err := ValidateKeyName("id_ed25519"); err != nil {
		t.Errorf("valid key name rejected: %v", err)
	}
	if err := ValidateKeyName("../id_rsa"); err == nil {
		t.Error("path-like key name accepted")
	}
	if err := ValidateKeyName(".hidden"); err == nil {
		t.Error("hidden key name accepted")
	}
	if err := ValidateKeyName(""); err == nil {
		t.Error("empty key name accepted")
	}
}

func TestValidateEnvName(t *testing.T) {
	for _, good := range []string{"PATH", "MY_VAR", "_x", "EDITOR"} {
		if err := ValidateEnvName(good); err != nil {
			t.Errorf("ValidateEnvName(%q) = %v, want nil", good, err)
		}
	}
	for _, bad := range []string{"", "1VAR", "MY-VAR", "A B"} {
		if err := ValidateEnvName(bad); err == nil {
			t.Errorf("ValidateEnvName(%q) accepted", bad)
		}
	}
}

func TestValidateWorkdir(t *testing.T) {
	dir := t.TempDir()

	if err := ValidateWorkdir(dir); err != nil {
		t.Errorf("existing directory rejected: %v", err)
	}
	if err := ValidateWorkdir("relative/path"); err == nil {
		t.Error("relative path accepted")
	}
	if err := ValidateWorkdir(""); err == nil {
		t.Error("empty path accepted")
	}
	if err := ValidateWorkdir(dir + "/missing"); err == nil {
		t.Error("nonexistent path accepted")
	}
}
