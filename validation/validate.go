// Package validation provides input validation for session settings.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Sentinel errors for common conditions.
var (
	// ErrInvalidName indicates a malformed application or key name.
	ErrInvalidName = errors.New("invalid name")

	// ErrPathTraversal indicates path traversal was detected.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrInvalidPath indicates an invalid path.
	ErrInvalidPath = errors.New("invalid path")
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateApplicationName validates a requested tool name. Names are
// bare basenames resolved on the search path; anything that looks like
// a path is rejected before it reaches the closure builder.
func ValidateApplicationName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty application name", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: must be a bare name, not a path", ErrInvalidName)
	}
	if name == "." || name == ".." {
		return ErrPathTraversal
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("%w: whitespace not allowed", ErrInvalidName)
	}
	return nil
}

// ValidateKeyName validates an SSH key basename.
func ValidateKeyName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty key name", ErrInvalidName)
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("%w: must be a basename", ErrInvalidName)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: hidden key names not allowed", ErrInvalidName)
	}
	return nil
}

// ValidateEnvName validates an environment variable name.
func ValidateEnvName(name string) error {
	if !envNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q is not a valid environment variable name", ErrInvalidName, name)
	}
	return nil
}

// ValidateWorkdir validates the externally supplied working directory
// that will be bind-mounted into the sandbox.
func ValidateWorkdir(path string) error {
	if path == "" {
		return fmt.Errorf("%w: working directory is required", ErrInvalidPath)
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: must be absolute", ErrInvalidPath)
	}
	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return ErrPathTraversal
	}
	info, err := os.Stat(cleaned)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: not a directory", ErrInvalidPath)
	}
	return nil
}
