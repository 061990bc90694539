// Package observability provides OpenTelemetry integration and audit
// logging for sandbox sessions.
package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides observability features.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func())

	// AddCounter increments the named counter.
	AddCounter(name string, labels map[string]string)

	// RecordDuration records a duration in seconds for the named histogram.
	RecordDuration(name string, seconds float64, labels map[string]string)
}

// Metric names recorded by the session components.
const (
	MetricLibrariesResolved = "libraries_resolved_total"
	MetricFilesCopied       = "files_copied_total"
	MetricCopyFailures      = "copy_failures_total"
	MetricAppsSkipped       = "apps_skipped_total"
	MetricLaunchAttempts    = "launch_attempts_total"
	MetricFallbacks         = "launch_fallbacks_total"
	MetricBuildDuration     = "closure_build_duration_seconds"
	MetricScaffoldDuration  = "scaffold_duration_seconds"
)

// SpanOption configures span creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds an attribute to the span.
func WithAttribute(key string, value interface{}) SpanOption {
	return func(c *spanConfig) {
		switch v := value.(type) {
		case string:
			c.attributes = append(c.attributes, attribute.String(key, v))
		case int:
			c.attributes = append(c.attributes, attribute.Int(key, v))
		case int64:
			c.attributes = append(c.attributes, attribute.Int64(key, v))
		case float64:
			c.attributes = append(c.attributes, attribute.Float64(key, v))
		case bool:
			c.attributes = append(c.attributes, attribute.Bool(key, v))
		}
	}
}

// TelemetryConfig configures telemetry.
type TelemetryConfig struct {
	// ServiceName is the service name for tracing.
	ServiceName string

	// EnableTracing enables distributed tracing.
	EnableTracing bool

	// EnableMetrics enables metrics collection.
	EnableMetrics bool

	// MetricsPrefix is the prefix for all metrics.
	MetricsPrefix string
}

// DefaultTelemetryConfig returns default configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:   "gojail",
		EnableTracing: true,
		EnableMetrics: true,
		MetricsPrefix: "gojail_",
	}
}

// telemetry implements Telemetry.
type telemetry struct {
	config TelemetryConfig
	tracer trace.Tracer
	meter  metric.Meter

	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
	mu         sync.Mutex
}

// NewTelemetry creates a new telemetry instance.
func NewTelemetry(config TelemetryConfig) (Telemetry, error) {
	t := &telemetry{
		config:     config,
		tracer:     otel.Tracer(config.ServiceName),
		meter:      otel.Meter(config.ServiceName),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}

	counterDescriptions := map[string]string{
		MetricLibrariesResolved: "Total number of shared libraries resolved",
		MetricFilesCopied:       "Total number of files copied into sandbox roots",
		MetricCopyFailures:      "Total number of file copies that failed",
		MetricAppsSkipped:       "Total number of requested applications not found",
		MetricLaunchAttempts:    "Total number of isolation launch attempts",
		MetricFallbacks:         "Total number of fallbacks to a weaker isolation strategy",
	}
	for name, desc := range counterDescriptions {
		c, err := t.meter.Int64Counter(config.MetricsPrefix+name, metric.WithDescription(desc))
		if err != nil {
			return nil, err
		}
		t.counters[name] = c
	}

	histogramDescriptions := map[string]string{
		MetricBuildDuration:    "Duration of dependency-closure builds",
		MetricScaffoldDuration: "Duration of sandbox root scaffolding",
	}
	for name, desc := range histogramDescriptions {
		h, err := t.meter.Float64Histogram(config.MetricsPrefix+name, metric.WithDescription(desc))
		if err != nil {
			return nil, err
		}
		t.histograms[name] = h
	}

	return t, nil
}

// StartSpan implements Telemetry.StartSpan.
func (t *telemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	if !t.config.EnableTracing {
		return ctx, func() {}
	}

	cfg := &spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithAttributes(cfg.attributes...),
		trace.WithSpanKind(cfg.kind),
	)

	return ctx, func() {
		span.End()
	}
}

// AddCounter implements Telemetry.AddCounter.
func (t *telemetry) AddCounter(name string, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	t.mu.Lock()
	c, ok := t.counters[name]
	t.mu.Unlock()
	if !ok {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(labelsToAttributes(labels)...))
}

// RecordDuration implements Telemetry.RecordDuration.
func (t *telemetry) RecordDuration(name string, seconds float64, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	t.mu.Lock()
	h, ok := t.histograms[name]
	t.mu.Unlock()
	if !ok {
		return
	}
	h.Record(context.Background(), seconds, metric.WithAttributes(labelsToAttributes(labels)...))
}

// labelsToAttributes converts labels to OTEL attributes.
func labelsToAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// NoopTelemetry returns a no-op telemetry implementation.
func NoopTelemetry() Telemetry {
	return &noopTelemetry{}
}

type noopTelemetry struct{}

func (t *noopTelemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	return ctx, func() {}
}

func (t *noopTelemetry) AddCounter(name string, labels map[string]string)                      {}
func (t *noopTelemetry) RecordDuration(name string, seconds float64, labels map[string]string) {}
