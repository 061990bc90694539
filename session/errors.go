package session

import (
	"errors"
	"fmt"
)

// Stage identifies the session phase an error came from.
type Stage string

const (
	// StageValidate covers settings and workdir validation.
	StageValidate Stage = "validate"

	// StageCreateRoot covers sandbox root directory creation.
	StageCreateRoot Stage = "create_root"

	// StageScaffold covers skeleton and /etc file placement.
	StageScaffold Stage = "scaffold"

	// StageBuildClosure covers dependency closure assembly.
	StageBuildClosure Stage = "build_closure"

	// StageHooks covers lifecycle hook execution.
	StageHooks Stage = "hooks"

	// StageLaunch covers the isolation strategy ladder.
	StageLaunch Stage = "launch"
)

// SessionError provides detailed error information for a failed run.
type SessionError struct {
	// Op is the operation that failed.
	Op string

	// Stage is the session phase the failure belongs to.
	Stage Stage

	// Err is the underlying error.
	Err error

	// Retryable indicates whether a fresh run might succeed
	// without operator intervention.
	Retryable bool
}

// Error returns the error message.
func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %s: %v", e.Op, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *SessionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func stageError(stage Stage, err error, retryable bool) error {
	return &SessionError{Op: "run", Stage: stage, Err: err, Retryable: retryable}
}
