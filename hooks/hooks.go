// Package hooks provides extension points for the sandbox session
// lifecycle: before the root is assembled, before the shell is
// launched, after it exits, and before the root is torn down.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Event carries the session state visible to hooks. Fields are filled
// progressively: RootPath after the root is created, Strategy and
// ExitCode only after the shell has exited.
type Event struct {
	// SessionID is the unique session identifier.
	SessionID string

	// RootPath is the host path of the sandbox root.
	RootPath string

	// Workdir is the host directory mounted as the workspace.
	Workdir string

	// Applications are the names requested for the sandbox.
	Applications []string

	// Strategy is the isolation strategy that ran the shell.
	Strategy string

	// ExitCode is the shell's exit code.
	ExitCode int
}

// Hook defines the common identity of a lifecycle hook.
type Hook interface {
	// Name returns a unique identifier for the hook.
	Name() string

	// Priority determines execution order (lower = earlier).
	Priority() int
}

// PreBuildHook is called before the dependency closure is assembled.
type PreBuildHook interface {
	Hook
	PreBuild(ctx context.Context, ev *Event) error
}

// PreLaunchHook is called after the root is populated, before the
// shell is launched.
type PreLaunchHook interface {
	Hook
	PreLaunch(ctx context.Context, ev *Event) error
}

// PostExitHook is called after the sandboxed shell has exited.
type PostExitHook interface {
	Hook
	PostExit(ctx context.Context, ev *Event) error
}

// PreTeardownHook is called before the root is unmounted and removed.
type PreTeardownHook interface {
	Hook
	PreTeardown(ctx context.Context, ev *Event) error
}

// Registry manages hook registration and invocation.
type Registry struct {
	preBuild    []PreBuildHook
	preLaunch   []PreLaunchHook
	postExit    []PostExitHook
	preTeardown []PreTeardownHook
	mu          sync.RWMutex
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a hook to the registry. A hook implementing several
// lifecycle interfaces is registered for each of them.
func (r *Registry) Register(hook Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := hook.(PreBuildHook); ok {
		r.preBuild = append(r.preBuild, h)
		sortHooks(r.preBuild)
	}
	if h, ok := hook.(PreLaunchHook); ok {
		r.preLaunch = append(r.preLaunch, h)
		sortHooks(r.preLaunch)
	}
	if h, ok := hook.(PostExitHook); ok {
		r.postExit = append(r.postExit, h)
		sortHooks(r.postExit)
	}
	if h, ok := hook.(PreTeardownHook); ok {
		r.preTeardown = append(r.preTeardown, h)
		sortHooks(r.preTeardown)
	}
	return nil
}

// Unregister removes a hook by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.preBuild = removeByName(r.preBuild, name)
	r.preLaunch = removeByName(r.preLaunch, name)
	r.postExit = removeByName(r.postExit, name)
	r.preTeardown = removeByName(r.preTeardown, name)
}

// RunPreBuild runs all pre-build hooks in priority order.
func (r *Registry) RunPreBuild(ctx context.Context, ev *Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.preBuild {
		if err := hook.PreBuild(ctx, ev); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunPreLaunch runs all pre-launch hooks in priority order.
func (r *Registry) RunPreLaunch(ctx context.Context, ev *Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.preLaunch {
		if err := hook.PreLaunch(ctx, ev); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunPostExit runs all post-exit hooks in priority order.
func (r *Registry) RunPostExit(ctx context.Context, ev *Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.postExit {
		if err := hook.PostExit(ctx, ev); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunPreTeardown runs all pre-teardown hooks in priority order. The
// first error is returned but teardown itself must still proceed.
func (r *Registry) RunPreTeardown(ctx context.Context, ev *Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.preTeardown {
		if err := hook.PreTeardown(ctx, ev); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

func sortHooks[H Hook](hooks []H) {
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].Priority() < hooks[j].Priority()
	})
}

func removeByName[H Hook](hooks []H, name string) []H {
	result := make([]H, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

// LoggingHook is a built-in hook that logs session milestones.
type LoggingHook struct {
	logger func(format string, args ...interface{})
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(logger func(format string, args ...interface{})) *LoggingHook {
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) Name() string  { return "logging" }
func (h *LoggingHook) Priority() int { return 1000 }

func (h *LoggingHook) PreBuild(ctx context.Context, ev *Event) error {
	h.logger("Assembling sandbox %s at %s for %d applications", ev.SessionID, ev.RootPath, len(ev.Applications))
	return nil
}

func (h *LoggingHook) PostExit(ctx context.Context, ev *Event) error {
	h.logger("Sandbox %s exited: strategy=%s code=%d", ev.SessionID, ev.Strategy, ev.ExitCode)
	return nil
}
