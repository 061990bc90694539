package observability

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
)

// memAuditLogger collects events in memory for assertions.
type memAuditLogger struct {
	mu     sync.Mutex
	events []*AuditEvent
}

func (l *memAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *memAuditLogger) Close() error { return nil }

func TestRecorder_WarnWritesBothSinks(t *testing.T) {
	audit := &memAuditLogger{}
	var out bytes.Buffer
	r := NewRecorder("sess-1",
		WithAuditLogger(audit),
		WithWarningWriter(&out),
	)

	r.Warn(context.Background(), &AuditEvent{Type: AuditEventAppSkipped, Path: "pythom3"},
		"application %q not found on search path", "pythom3")

	if len(audit.events) != 1 {
		t.Fatalf("audit events = %d, want 1", len(audit.events))
	}
	ev := audit.events[0]
	if ev.SessionID != "sess-1" {
		t.Errorf("session id = %q, want sess-1", ev.SessionID)
	}
	if ev.Type != AuditEventAppSkipped {
		t.Errorf("type = %q, want app_skipped", ev.Type)
	}
	if !strings.Contains(out.String(), "warning: application \"pythom3\" not found") {
		t.Errorf("stderr output = %q, want user-visible warning", out.String())
	}
}

func TestRecorder_EventIsSilent(t *testing.T) {
	audit := &memAuditLogger{}
	var out bytes.Buffer
	r := NewRecorder("sess-2", WithAuditLogger(audit), WithWarningWriter(&out))

	r.Event(context.Background(), &AuditEvent{Type: AuditEventSessionStart})

	if out.Len() != 0 {
		t.Errorf("Event should not print warnings, got %q", out.String())
	}
	if len(audit.events) != 1 {
		t.Fatalf("audit events = %d, want 1", len(audit.events))
	}
}

func TestRecorder_Defaults(t *testing.T) {
	r := NewRecorder("sess-3", WithWarningWriter(&bytes.Buffer{}))
	// No-op sinks must not panic.
	r.Count(MetricFilesCopied, nil)
	r.Duration(MetricBuildDuration, 0.1, nil)
	_, end := r.Span(context.Background(), "test")
	end()
}
