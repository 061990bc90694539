// Package exec provides the internal command execution wrapper.
// This is the ONLY package in the entire library that imports os/exec.
// All subprocess invocation MUST go through this package: the link
// inspector runs as a captured command, the sandboxed shell as an
// interactive one.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ErrStartFailed indicates the process could not be started at all
// (binary missing, permission denied). The launcher distinguishes this
// from a process that started and then exited non-zero.
var ErrStartFailed = errors.New("process failed to start")

// Runner executes commands using os/exec.CommandContext.
// This is the sole abstraction for process invocation.
type Runner struct {
	// minimalEnv contains the minimal safe environment variables.
	minimalEnv []string
}

// NewRunner creates a new command runner.
func NewRunner() *Runner {
	return &Runner{
		minimalEnv: []string{
			"PATH=/usr/bin:/bin",
			"LANG=C.UTF-8",
			"LC_ALL=C.UTF-8",
		},
	}
}

// RunConfig contains configuration for running a command.
type RunConfig struct {
	// Binary is the executable name or absolute path.
	Binary string

	// Args are the command arguments (excluding the binary name).
	Args []string

	// Env is the environment variables. If nil, minimalEnv is used.
	Env []string

	// WorkingDir is the working directory.
	WorkingDir string

	// Stdin provides input to the command.
	Stdin io.Reader

	// Stdout receives standard output. If nil, output is captured
	// (Run) or attached to the caller's terminal (RunInteractive).
	Stdout io.Writer

	// Stderr receives standard error, same rules as Stdout.
	Stderr io.Writer

	// SysProcAttr contains OS-specific process attributes.
	SysProcAttr *syscall.SysProcAttr
}

// RunResult contains the result of command execution.
type RunResult struct {
	// ExitCode is the process exit code.
	ExitCode int

	// Signal is the signal that terminated the process, if any.
	Signal syscall.Signal

	// Stdout contains captured standard output (if not streaming).
	Stdout []byte

	// Stderr contains captured standard error (if not streaming).
	Stderr []byte

	// Duration is the wall clock time of execution.
	Duration time.Duration
}

// Run executes a command and captures its output. The context MUST
// have a deadline set: captured runs are short-lived inspection
// subprocesses and must never hang the session.
func (r *Runner) Run(ctx context.Context, config *RunConfig) (*RunResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if _, ok := ctx.Deadline(); !ok {
		return nil, fmt.Errorf("context must have a deadline for captured runs")
	}

	cmd := r.build(ctx, config)

	var stdoutBuf, stderrBuf bytes.Buffer
	if config.Stdout != nil {
		cmd.Stdout = config.Stdout
	} else {
		cmd.Stdout = &stdoutBuf
	}
	if config.Stderr != nil {
		cmd.Stderr = config.Stderr
	} else {
		cmd.Stderr = &stderrBuf
	}

	start := time.Now()
	err := cmd.Run()
	if err != nil && cmd.ProcessState == nil {
		// The process never started (tool missing, permission denied).
		return nil, fmt.Errorf("%w: %s: %v", ErrStartFailed, config.Binary, err)
	}
	result := r.collect(cmd, time.Since(start))
	if config.Stdout == nil {
		result.Stdout = stdoutBuf.Bytes()
	}
	if config.Stderr == nil {
		result.Stderr = stderrBuf.Bytes()
	}
	return result, err
}

// RunInteractive starts a command with the caller's terminal attached
// and blocks until it exits. Unlike Run, no deadline is required: an
// interactive session may run indefinitely and ends only when the user
// leaves the shell or the context is canceled.
//
// A failure to start the process is reported as an error wrapping
// ErrStartFailed. A process that starts and exits non-zero is NOT an
// error; the exit code is carried in the result.
func (r *Runner) RunInteractive(ctx context.Context, config *RunConfig) (*RunResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cmd := r.build(ctx, config)
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if config.Stdout != nil {
		cmd.Stdout = config.Stdout
	} else {
		cmd.Stdout = os.Stdout
	}
	if config.Stderr != nil {
		cmd.Stderr = config.Stderr
	} else {
		cmd.Stderr = os.Stderr
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStartFailed, config.Binary, err)
	}

	// Wait errors for a started process are exit-status errors; the
	// launcher treats any started shell as a completed attempt.
	waitErr := cmd.Wait()
	result := r.collect(cmd, time.Since(start))
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) && ctx.Err() == nil {
			return result, waitErr
		}
	}
	return result, nil
}

func (r *Runner) build(ctx context.Context, config *RunConfig) *exec.Cmd {
	// G204: the binary is either a fixed inspection tool or an
	// isolation wrapper from the static strategy table; arguments are
	// built from validated settings. Separate binary/args, no shell.
	// #nosec G204 -- commands come from the static strategy table
	cmd := exec.CommandContext(ctx, config.Binary, config.Args...)

	if len(config.Env) > 0 {
		cmd.Env = config.Env
	} else {
		cmd.Env = r.minimalEnv
	}
	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}
	if config.Stdin != nil {
		cmd.Stdin = config.Stdin
	}
	if config.SysProcAttr != nil {
		cmd.SysProcAttr = config.SysProcAttr
	} else {
		cmd.SysProcAttr = defaultSysProcAttr()
	}
	return cmd
}

func (r *Runner) collect(cmd *exec.Cmd, duration time.Duration) *RunResult {
	result := &RunResult{Duration: duration}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		if sig, ok := extractSignal(cmd.ProcessState.Sys()); ok {
			result.Signal = sig
		}
	}
	return result
}

// BuildEnv creates an environment slice from a map.
func BuildEnv(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}
