// Package resolver discovers the shared libraries a binary is
// dynamically linked against by invoking the host's link-inspection
// tool and parsing its output.
//
// Two grammars exist in the wild: the ELF inspector prints
// "name => /absolute/path (address)" lines, the Mach-O inspector
// prints a header followed by indented install-name lines. Each gets
// its own implementation, selected once at startup; they share no
// state.
package resolver

import (
	"context"
	"errors"
	"os"
	"runtime"
	"time"

	internalexec "github.com/victoralfred/gojail/internal/exec"
)

// ErrInspectFailed indicates the inspection tool itself could not run
// (missing from PATH, not executable). The closure builder treats it
// as "no dependencies found" but feeds it to the circuit breaker so a
// broken tool is not re-spawned for every binary.
var ErrInspectFailed = errors.New("link inspection failed")

// inspectTimeout bounds a single inspection subprocess. Inspection is
// a local metadata read; a tool that takes longer than this is stuck.
const inspectTimeout = 10 * time.Second

// CommandRunner runs a captured command.
type CommandRunner interface {
	Run(ctx context.Context, config *internalexec.RunConfig) (*internalexec.RunResult, error)
}

// Resolver resolves the direct library dependencies of a binary.
type Resolver interface {
	// Tool returns the name of the inspection tool this resolver
	// shells out to, for circuit-breaker keying and diagnostics.
	Tool() string

	// Resolve returns the absolute host paths of the shared libraries
	// binaryPath links against. A static binary or unparseable output
	// yields an empty set and a nil error; a tool that cannot be
	// spawned at all yields ErrInspectFailed. Neither aborts closure
	// computation: the builder defaults both to "no dependencies".
	Resolve(ctx context.Context, binaryPath string) ([]string, error)
}

// New creates the resolver for the current platform.
func New(runner CommandRunner) Resolver {
	return ForPlatform(runtime.GOOS, runner)
}

// ForPlatform creates the resolver for the named platform. Split out
// of New so tests can exercise both grammars on any host.
func ForPlatform(goos string, runner CommandRunner) Resolver {
	switch goos {
	case "darwin":
		return &machoResolver{runner: runner, exists: fileExists}
	default:
		return &elfResolver{runner: runner, exists: fileExists}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
