package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	internalexec "github.com/victoralfred/gojail/internal/exec"
	"github.com/victoralfred/gojail/observability"
	"github.com/victoralfred/gojail/rootfs"
)

// ErrAllStrategiesFailed reports that no isolation strategy could be
// started, including the direct shell.
var ErrAllStrategiesFailed = errors.New("launcher: all isolation strategies failed to start")

// InteractiveRunner spawns a command with the caller's terminal
// attached and reports its exit. Implemented by internal/exec.Runner.
type InteractiveRunner interface {
	RunInteractive(ctx context.Context, config *internalexec.RunConfig) (*internalexec.RunResult, error)
}

// Attempt records one strategy trial for the launch outcome.
type Attempt struct {
	// Strategy is the strategy name.
	Strategy string

	// State is the machine state the attempt ran in.
	State State

	// Started reports whether the wrapper process was spawned.
	Started bool

	// Err is the start failure when Started is false.
	Err error
}

// Outcome is the result of a completed launch.
type Outcome struct {
	// State is the state whose strategy actually ran the shell.
	State State

	// Strategy is the name of that strategy.
	Strategy string

	// ExitCode is the shell's exit code. A non-zero code is a
	// normal outcome, not a launch failure.
	ExitCode int

	// Attempts lists every strategy trial in order.
	Attempts []Attempt
}

// Params describes a launch request.
type Params struct {
	// Root is the assembled sandbox root.
	Root *rootfs.Root

	// Workdir is the host directory bound onto the workspace mount
	// point by the startup script.
	Workdir string

	// HomeDir is the host home directory credentials are copied
	// from. Defaults to the current user's home when empty.
	HomeDir string

	// SSHKeys lists key basenames to copy; empty copies all.
	SSHKeys []string

	// Env is the environment handed to the wrapper process.
	Env map[string]string
}

// Launcher walks the isolation strategy ladder for a prepared root.
type Launcher struct {
	runner      InteractiveRunner
	rec         *observability.Recorder
	elevated    func() bool
	interactive func() bool
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithRecorder sets the observability recorder.
func WithRecorder(rec *observability.Recorder) Option {
	return func(l *Launcher) { l.rec = rec }
}

// WithElevatedCheck overrides the privilege probe. The default checks
// for an effective UID of zero.
func WithElevatedCheck(fn func() bool) Option {
	return func(l *Launcher) { l.elevated = fn }
}

// WithInteractiveCheck overrides the terminal probe. The default asks
// whether stdin is a terminal.
func WithInteractiveCheck(fn func() bool) Option {
	return func(l *Launcher) { l.interactive = fn }
}

// New returns a Launcher spawning through runner.
func New(runner InteractiveRunner, opts ...Option) *Launcher {
	l := &Launcher{
		runner:      runner,
		elevated:    func() bool { return os.Geteuid() == 0 },
		interactive: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rec == nil {
		l.rec = observability.NewRecorder("")
	}
	return l
}

// Launch writes the startup script into the root and runs the
// strategy ladder. Strategies requiring elevation are skipped when the
// process is not elevated. A strategy whose wrapper cannot be spawned
// falls through to the next one; a strategy that spawns is terminal,
// whatever the shell's exit code. Launch fails only when the script
// cannot be written or every strategy fails to start.
func (l *Launcher) Launch(ctx context.Context, p Params) (*Outcome, error) {
	if p.Root == nil {
		return nil, errors.New("launcher: nil root")
	}
	home := p.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}

	script := BuildScript(ScriptParams{
		Workdir:     p.Workdir,
		HomeDir:     home,
		SSHKeys:     p.SSHKeys,
		Interactive: l.interactive(),
	})
	if _, err := p.Root.WriteScript(scriptName, script); err != nil {
		return nil, fmt.Errorf("launcher: write startup script: %w", err)
	}

	outcome := &Outcome{State: StateNotStarted}
	for _, st := range strategies(p.Root.Path) {
		if st.RequiresElevated && !l.elevated() {
			continue
		}
		outcome.State = st.State

		l.rec.Count(observability.MetricLaunchAttempts, map[string]string{"strategy": st.Name})
		l.rec.Event(ctx, &observability.AuditEvent{
			Type:     observability.AuditEventLaunchAttempt,
			RootPath: p.Root.Path,
			Strategy: st.Name,
		})

		result, err := l.runner.RunInteractive(ctx, &internalexec.RunConfig{
			Binary: st.Argv[0],
			Args:   st.Argv[1:],
			Env:    internalexec.BuildEnv(p.Env),
		})
		if err != nil {
			if errors.Is(err, internalexec.ErrStartFailed) {
				outcome.Attempts = append(outcome.Attempts, Attempt{Strategy: st.Name, State: st.State, Err: err})
				l.rec.Count(observability.MetricFallbacks, map[string]string{"from": st.Name})
				l.rec.Warn(ctx, &observability.AuditEvent{
					Type:     observability.AuditEventFallback,
					RootPath: p.Root.Path,
					Strategy: st.Name,
					Error:    err.Error(),
				}, "isolation strategy %s failed to start, falling back: %v", st.Name, err)
				continue
			}
			outcome.Attempts = append(outcome.Attempts, Attempt{Strategy: st.Name, State: st.State, Err: err})
			return outcome, fmt.Errorf("launcher: strategy %s: %w", st.Name, err)
		}

		outcome.Attempts = append(outcome.Attempts, Attempt{Strategy: st.Name, State: st.State, Started: true})
		outcome.Strategy = st.Name
		outcome.ExitCode = result.ExitCode
		outcome.State = StateExited
		return outcome, nil
	}
	return outcome, ErrAllStrategiesFailed
}
