package observability

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Recorder fans session events out to the audit log, telemetry, and a
// user-visible warning stream. Every recoverable, logged-and-skipped
// condition goes through Warn so the user can tell what the sandbox
// may be missing.
type Recorder struct {
	audit     AuditLogger
	telemetry Telemetry
	warnings  io.Writer
	sessionID string
}

// RecorderOption configures the recorder.
type RecorderOption func(*Recorder)

// WithAuditLogger sets the audit logger.
func WithAuditLogger(l AuditLogger) RecorderOption {
	return func(r *Recorder) { r.audit = l }
}

// WithTelemetry sets the telemetry provider.
func WithTelemetry(t Telemetry) RecorderOption {
	return func(r *Recorder) { r.telemetry = t }
}

// WithWarningWriter sets the destination for user-visible warnings.
func WithWarningWriter(w io.Writer) RecorderOption {
	return func(r *Recorder) { r.warnings = w }
}

// NewRecorder creates a recorder for one session.
func NewRecorder(sessionID string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		audit:     NoopAuditLogger(),
		telemetry: NoopTelemetry(),
		warnings:  os.Stderr,
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionID returns the session identifier this recorder is bound to.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Event records an audit event without a warning.
func (r *Recorder) Event(ctx context.Context, event *AuditEvent) {
	event.SessionID = r.sessionID
	//nolint:errcheck // audit failures must never affect the session
	_ = r.audit.Log(ctx, event)
}

// Warn records an audit event and prints a user-visible warning.
func (r *Recorder) Warn(ctx context.Context, event *AuditEvent, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	event.Message = msg
	r.Event(ctx, event)
	fmt.Fprintf(r.warnings, "warning: %s\n", msg)
}

// Count increments the named counter.
func (r *Recorder) Count(name string, labels map[string]string) {
	r.telemetry.AddCounter(name, labels)
}

// Duration records a duration histogram value.
func (r *Recorder) Duration(name string, seconds float64, labels map[string]string) {
	r.telemetry.RecordDuration(name, seconds, labels)
}

// Span starts a trace span.
func (r *Recorder) Span(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	return r.telemetry.StartSpan(ctx, name, opts...)
}
