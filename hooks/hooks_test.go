package hooks

import (
	"context"
	"errors"
	"testing"
)

type recordingHook struct {
	name     string
	priority int
	log      *[]string
	err      error
}

func (h *recordingHook) Name() string  { return h.name }
func (h *recordingHook) Priority() int { return h.priority }

func (h *recordingHook) PreBuild(_ context.Context, _ *Event) error {
	*h.log = append(*h.log, h.name+":prebuild")
	return h.err
}

func (h *recordingHook) PostExit(_ context.Context, _ *Event) error {
	*h.log = append(*h.log, h.name+":postexit")
	return h.err
}

func TestRegistry_PriorityOrder(t *testing.T) {
	var log []string
	r := NewRegistry()
	if err := r.Register(&recordingHook{name: "late", priority: 50, log: &log}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(&recordingHook{name: "early", priority: 1, log: &log}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := r.RunPreBuild(context.Background(), &Event{}); err != nil {
		t.Fatalf("RunPreBuild() error = %v", err)
	}
	if len(log) != 2 || log[0] != "early:prebuild" || log[1] != "late:prebuild" {
		t.Errorf("execution order = %v, want early before late", log)
	}
}

func TestRegistry_ErrorNamesHook(t *testing.T) {
	var log []string
	r := NewRegistry()
	boom := errors.New("boom")
	_ = r.Register(&recordingHook{name: "broken", priority: 1, log: &log, err: boom})
	_ = r.Register(&recordingHook{name: "after", priority: 2, log: &log})

	err := r.RunPostExit(context.Background(), &Event{})
	if !errors.Is(err, boom) {
		t.Fatalf("RunPostExit() error = %v, want wrapped boom", err)
	}
	if len(log) != 1 {
		t.Errorf("hooks after a failure must not run, got %v", log)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&recordingHook{name: "gone", priority: 1, log: &log})
	r.Unregister("gone")

	if err := r.RunPreBuild(context.Background(), &Event{}); err != nil {
		t.Fatalf("RunPreBuild() error = %v", err)
	}
	if len(log) != 0 {
		t.Errorf("unregistered hook still ran: %v", log)
	}
}

func TestRegistry_MultiInterfaceHook(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&recordingHook{name: "both", priority: 1, log: &log})

	_ = r.RunPreBuild(context.Background(), &Event{})
	_ = r.RunPostExit(context.Background(), &Event{})
	if len(log) != 2 {
		t.Errorf("hook should run in both phases, got %v", log)
	}
}
