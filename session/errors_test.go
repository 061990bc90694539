package session

import (
	"errors"
	"testing"

	"github.com/victoralfred/gojail/launcher"
)

func TestSessionError_MessageAndUnwrap(t *testing.T) {
	underlying := errors.New("disk full")
	err := stageError(StageScaffold, underlying, true)

	want := "session run: scaffold: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should match the underlying error")
	}

	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		t.Fatal("errors.As() should yield *SessionError")
	}
	if sessionErr.Stage != StageScaffold || !sessionErr.Retryable {
		t.Errorf("got stage=%s retryable=%v, want scaffold/true", sessionErr.Stage, sessionErr.Retryable)
	}
}

func TestSessionError_MatchesSentinelThroughIs(t *testing.T) {
	err := stageError(StageLaunch, launcher.ErrAllStrategiesFailed, false)
	if !errors.Is(err, launcher.ErrAllStrategiesFailed) {
		t.Error("wrapped sentinel should still match")
	}
}
