// Package envutil provides environment variable utilities for the
// sandboxed shell.
package envutil

// MinimalEnvironment returns a minimal safe environment for helper
// subprocesses such as the link inspector.
func MinimalEnvironment() map[string]string {
	return map[string]string{
		"PATH":   "/usr/bin:/bin",
		"LANG":   "C.UTF-8",
		"LC_ALL": "C.UTF-8",
	}
}

// SandboxEnvironment returns the base environment for the shell spawned
// inside the sandbox root. The synthetic root user owns the session.
func SandboxEnvironment(term string) map[string]string {
	env := map[string]string{
		"PATH":   "/usr/local/bin:/usr/bin:/bin:/usr/sbin:/sbin",
		"HOME":   "/root",
		"USER":   "root",
		"SHELL":  "/bin/bash",
		"LANG":   "C.UTF-8",
		"LC_ALL": "C.UTF-8",
	}
	if term != "" {
		env["TERM"] = term
	}
	return env
}

// MergeEnvironment merges base environment with overrides.
// Overrides take precedence.
func MergeEnvironment(base, override map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(override))

	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		result[k] = v
	}

	return result
}
