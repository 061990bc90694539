package envutil

import "testing"

func TestMinimalEnvironment(t *testing.T) {
	env := MinimalEnvironment()
	if env["PATH"] == "" {
		t.Error("minimal environment must include PATH")
	}
}

func TestSandboxEnvironment(t *testing.T) {
	env := SandboxEnvironment("xterm-256color")

	if env["HOME"] != "/root" {
		t.Errorf("HOME = %q, want /root", env["HOME"])
	}
	if env["USER"] != "root" {
		t.Errorf("USER = %q, want root", env["USER"])
	}
	if env["TERM"] != "xterm-256color" {
		t.Errorf("TERM = %q, want xterm-256color", env["TERM"])
	}
}

func TestSandboxEnvironment_NoTerm(t *testing.T) {
	env := SandboxEnvironment("")
	if _, ok := env["TERM"]; ok {
		t.Error("TERM should be unset when the host terminal is unknown")
	}
}

func TestMergeEnvironment(t *testing.T) {
	base := map[string]string{"A": "1", "B": "2"}
	override := map[string]string{"B": "3", "C": "4"}

	merged := MergeEnvironment(base, override)

	if merged["A"] != "1" {
		t.Errorf("A = %q, want 1", merged["A"])
	}
	if merged["B"] != "3" {
		t.Errorf("B = %q, want override value 3", merged["B"])
	}
	if merged["C"] != "4" {
		t.Errorf("C = %q, want 4", merged["C"])
	}
}
