// Package launcher starts the sandboxed shell under the strongest
// isolation the host permits, falling back through an ordered list of
// weaker strategies when a wrapper cannot be started at all.
package launcher

import "path/filepath"

// State is the launcher state machine position. Transitions are
// strictly ordered: a strategy that fails to start moves to the next
// weaker state, a strategy that starts moves to StateExited once the
// shell returns.
type State int

const (
	// StateNotStarted is the initial state.
	StateNotStarted State = iota
	// StateStrongIsolation attempts namespace isolation plus chroot.
	StateStrongIsolation
	// StateChrootOnly attempts a plain chroot.
	StateChrootOnly
	// StateDirectShell runs the startup script with no isolation.
	StateDirectShell
	// StateExited is terminal: a strategy started and the shell ended.
	StateExited
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStrongIsolation:
		return "strong_isolation"
	case StateChrootOnly:
		return "chroot_only"
	case StateDirectShell:
		return "direct_shell"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// scriptName is the startup script written at the top of the root.
const scriptName = "start.sh"

// Strategy is one isolation attempt: a pure data record of the
// command to spawn and whether it needs elevated privileges.
type Strategy struct {
	// Name identifies the strategy in logs and audit events.
	Name string

	// State is the machine state this strategy belongs to.
	State State

	// Argv is the full command line, wrapper included.
	Argv []string

	// RequiresElevated marks strategies only entered when the
	// effective privilege level is root-equivalent.
	RequiresElevated bool
}

// strategies returns the ordered strategy list for rootPath, strongest
// first. The same generated startup script is the entry point of every
// strategy; only the wrapper differs.
func strategies(rootPath string) []Strategy {
	inRoot := "/" + scriptName
	return []Strategy{
		{
			Name:             "namespace+chroot",
			State:            StateStrongIsolation,
			RequiresElevated: true,
			Argv:             []string{"unshare", "--mount", "--pid", "--fork", "chroot", rootPath, "/bin/bash", inRoot},
		},
		{
			Name:  "chroot",
			State: StateChrootOnly,
			Argv:  []string{"chroot", rootPath, "/bin/bash", inRoot},
		},
		{
			Name:  "direct",
			State: StateDirectShell,
			Argv:  []string{"/bin/bash", filepath.Join(rootPath, scriptName)},
		},
	}
}
