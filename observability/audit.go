package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"
)

// AuditLogger provides append-only audit logging of session events.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *AuditEvent) error

	// Close closes the audit logger.
	Close() error
}

// AuditEvent represents an audit log entry.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Fields    map[string]string `json:"fields,omitempty"`
	SessionID string            `json:"session_id"`
	RootPath  string            `json:"root_path,omitempty"`
	Path      string            `json:"path,omitempty"`
	Strategy  string            `json:"strategy,omitempty"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	Type      AuditEventType    `json:"type"`
	ExitCode  int               `json:"exit_code,omitempty"`
}

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// AuditEventSessionStart marks the beginning of a sandbox session.
	AuditEventSessionStart AuditEventType = "session_start"

	// AuditEventSessionEnd marks the end of a sandbox session.
	AuditEventSessionEnd AuditEventType = "session_end"

	// AuditEventAppSkipped records a requested application not found
	// on the search path.
	AuditEventAppSkipped AuditEventType = "app_skipped"

	// AuditEventCopyFailed records a file that could not be copied
	// into the sandbox root.
	AuditEventCopyFailed AuditEventType = "copy_failed"

	// AuditEventLaunchAttempt records one isolation launch attempt.
	AuditEventLaunchAttempt AuditEventType = "launch_attempt"

	// AuditEventFallback records a fallback to a weaker strategy.
	AuditEventFallback AuditEventType = "launch_fallback"

	// AuditEventNetworkAdvisory records the advisory network settings.
	// Nothing is enforced; the entry exists for operator review.
	AuditEventNetworkAdvisory AuditEventType = "network_advisory"

	// AuditEventUnmountFailed records a best-effort unmount failure
	// during teardown.
	AuditEventUnmountFailed AuditEventType = "unmount_failed"

	// AuditEventTeardown records sandbox root removal.
	AuditEventTeardown AuditEventType = "teardown"
)

// AuditConfig configures the audit logger.
type AuditConfig struct {
	BasePath string
	FilePath string
	Enabled  bool
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:  true,
		BasePath: "/var/log",
		FilePath: "gojail/audit.log",
	}
}

// fileAuditLogger implements AuditLogger using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

// NewFileAuditLogger creates a new file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &fileAuditLogger{
		config:   config,
		safePath: sp,
	}, nil
}

// Log implements AuditLogger.Log.
func (l *fileAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	if !l.config.Enabled {
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	return nil
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}

// NoopAuditLogger returns a no-op audit logger.
func NoopAuditLogger() AuditLogger {
	return &noopAuditLogger{}
}

type noopAuditLogger struct{}

func (l *noopAuditLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (l *noopAuditLogger) Close() error                                     { return nil }
