// Package session ties the sandbox pieces together: it creates the
// root, scaffolds and populates it, launches the shell through the
// isolation ladder, and guarantees teardown on every path out.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/victoralfred/gojail/closure"
	"github.com/victoralfred/gojail/config"
	"github.com/victoralfred/gojail/hooks"
	"github.com/victoralfred/gojail/internal/envutil"
	internalexec "github.com/victoralfred/gojail/internal/exec"
	"github.com/victoralfred/gojail/launcher"
	"github.com/victoralfred/gojail/observability"
	"github.com/victoralfred/gojail/pool"
	"github.com/victoralfred/gojail/resilience"
	"github.com/victoralfred/gojail/resolver"
	"github.com/victoralfred/gojail/rootfs"
	"github.com/victoralfred/gojail/validation"
)

// teardownTimeout bounds pool shutdown during teardown.
const teardownTimeout = 5 * time.Second

// closureBuilder assembles the dependency closure into a root.
type closureBuilder interface {
	Build(ctx context.Context, names []string, rootPath string) (*closure.Manifest, error)
}

// shellLauncher runs the isolation strategy ladder.
type shellLauncher interface {
	Launch(ctx context.Context, p launcher.Params) (*launcher.Outcome, error)
}

// Result reports a completed session.
type Result struct {
	// ExitCode is the sandboxed shell's exit code.
	ExitCode int

	// Strategy is the isolation strategy that ran the shell.
	Strategy string

	// RootPath is the root directory the session used. It is
	// removed by the time Run returns.
	RootPath string

	// Manifest describes what was copied into the root.
	Manifest *closure.Manifest
}

// Session is a single sandbox run. A Session is single-use: its
// worker pool and audit log are released when Run returns.
type Session struct {
	cfg      config.SessionConfig
	rec      *observability.Recorder
	audit    observability.AuditLogger
	registry *hooks.Registry
	builder  closureBuilder
	launcher shellLauncher
	workers  pool.Pool
	baseDir  string
	unmount  func(path string) error
}

// Option configures a Session.
type Option func(*Session)

// WithBaseDir sets the directory sandbox roots are created under.
// Defaults to the system temporary directory.
func WithBaseDir(dir string) Option {
	return func(s *Session) { s.baseDir = dir }
}

// WithHooks sets the lifecycle hook registry.
func WithHooks(registry *hooks.Registry) Option {
	return func(s *Session) { s.registry = registry }
}

// WithRecorder overrides the observability recorder.
func WithRecorder(rec *observability.Recorder) Option {
	return func(s *Session) { s.rec = rec }
}

// WithBuilder overrides the closure builder.
func WithBuilder(b closureBuilder) Option {
	return func(s *Session) { s.builder = b }
}

// WithLauncher overrides the shell launcher.
func WithLauncher(l shellLauncher) Option {
	return func(s *Session) { s.launcher = l }
}

// WithUnmount overrides the workspace unmount call.
func WithUnmount(fn func(path string) error) Option {
	return func(s *Session) { s.unmount = fn }
}

// New builds a session from cfg, wiring the default component stack:
// a platform resolver behind a rate limiter and circuit breaker, a
// worker pool for inspections, and the configured audit and telemetry
// sinks.
func New(cfg config.SessionConfig, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	s := &Session{
		cfg:     cfg,
		baseDir: os.TempDir(),
		unmount: func(path string) error { return unix.Unmount(path, 0) },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = hooks.NewRegistry()
	}

	var auditErr error
	if s.rec == nil {
		sessionID := uuid.NewString()
		telemetry, err := observability.NewTelemetry(cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("session: telemetry: %w", err)
		}
		s.audit = observability.NoopAuditLogger()
		if cfg.Audit.Enabled {
			audit, err := observability.NewFileAuditLogger(cfg.Audit)
			if err != nil {
				auditErr = err
			} else {
				s.audit = audit
			}
		}
		s.rec = observability.NewRecorder(sessionID,
			observability.WithTelemetry(telemetry),
			observability.WithAuditLogger(s.audit),
		)
	}
	if auditErr != nil {
		s.rec.Warn(context.Background(), &observability.AuditEvent{
			Type:  observability.AuditEventSessionStart,
			Error: auditErr.Error(),
		}, "audit log unavailable, continuing without it: %v", auditErr)
	}

	if s.builder == nil || s.launcher == nil {
		runner := internalexec.NewRunner()
		s.workers = pool.New(cfg.Pool)
		if s.builder == nil {
			s.builder = closure.NewBuilder(resolver.New(runner), cfg.SearchPath,
				closure.WithPool(s.workers),
				closure.WithInspectLimiter(resilience.NewInspectLimiter(cfg.InspectLimiter)),
				closure.WithCircuitBreaker(resilience.NewCircuitBreaker(cfg.CircuitBreaker)),
				closure.WithRecorder(s.rec),
			)
		}
		if s.launcher == nil {
			s.launcher = launcher.New(runner, launcher.WithRecorder(s.rec))
		}
	}
	return s, nil
}

// Run assembles the sandbox under workdir's supervision and blocks
// until the shell exits. An interrupt cancels the context and takes
// the normal cleanup path. The root directory is always removed
// before Run returns, whatever path the session took.
func (s *Session) Run(ctx context.Context, workdir string) (*Result, error) {
	if err := validation.ValidateWorkdir(workdir); err != nil {
		return nil, stageError(StageValidate, fmt.Errorf("workdir: %w", err), false)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, end := s.rec.Span(ctx, "session.run", observability.WithAttribute("workdir", workdir))
	defer end()

	names := make([]string, 0, len(s.cfg.BaseApplications)+len(s.cfg.Settings.Applications))
	names = append(names, s.cfg.BaseApplications...)
	names = append(names, s.cfg.Settings.Applications...)

	s.rec.Event(ctx, &observability.AuditEvent{
		Type: observability.AuditEventSessionStart,
		Path: workdir,
	})

	root, err := rootfs.New(s.baseDir)
	if err != nil {
		return nil, stageError(StageCreateRoot, err, true)
	}

	ev := &hooks.Event{
		SessionID:    s.rec.SessionID(),
		RootPath:     root.Path,
		Workdir:      workdir,
		Applications: names,
	}
	defer s.teardown(root, ev)

	if err := s.registry.RunPreBuild(ctx, ev); err != nil {
		return nil, stageError(StageHooks, err, false)
	}

	// The skeleton and the dependency closure touch disjoint paths,
	// so they are assembled concurrently.
	profile := config.RenderProfile(&s.cfg.Settings)
	var (
		wg          sync.WaitGroup
		scaffoldErr error
		manifest    *closure.Manifest
		buildErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		scaffoldErr = root.Scaffold(profile)
		s.rec.Duration(observability.MetricScaffoldDuration, time.Since(start).Seconds(), nil)
	}()
	go func() {
		defer wg.Done()
		manifest, buildErr = s.builder.Build(ctx, names, root.Path)
	}()
	wg.Wait()

	if scaffoldErr != nil {
		return nil, stageError(StageScaffold, scaffoldErr, true)
	}
	if buildErr != nil {
		return nil, stageError(StageBuildClosure, buildErr, false)
	}

	if s.cfg.Settings.Network.Enabled {
		s.rec.Warn(ctx, &observability.AuditEvent{
			Type:     observability.AuditEventNetworkAdvisory,
			RootPath: root.Path,
			Fields:   s.cfg.Settings.Network.AdvisoryFields(),
		}, "network settings are advisory only; no filtering is enforced")
	}

	if err := s.registry.RunPreLaunch(ctx, ev); err != nil {
		return nil, stageError(StageHooks, err, false)
	}

	outcome, err := s.launcher.Launch(ctx, launcher.Params{
		Root:    root,
		Workdir: workdir,
		SSHKeys: s.cfg.Settings.SSHKeys,
		Env:     envutil.SandboxEnvironment(os.Getenv("TERM")),
	})
	if err != nil {
		return nil, stageError(StageLaunch, err, false)
	}

	ev.Strategy = outcome.Strategy
	ev.ExitCode = outcome.ExitCode
	if err := s.registry.RunPostExit(ctx, ev); err != nil {
		s.rec.Warn(ctx, &observability.AuditEvent{
			Type:  observability.AuditEventSessionEnd,
			Error: err.Error(),
		}, "post-exit hook failed: %v", err)
	}

	s.rec.Event(ctx, &observability.AuditEvent{
		Type:     observability.AuditEventSessionEnd,
		RootPath: root.Path,
		Strategy: outcome.Strategy,
		ExitCode: outcome.ExitCode,
	})

	return &Result{
		ExitCode: outcome.ExitCode,
		Strategy: outcome.Strategy,
		RootPath: root.Path,
		Manifest: manifest,
	}, nil
}

// teardown releases everything the session acquired. Each step is
// attempted regardless of earlier failures; nothing here can be
// allowed to keep the root on disk.
func (s *Session) teardown(root *rootfs.Root, ev *hooks.Event) {
	ctx := context.Background()

	if err := s.registry.RunPreTeardown(ctx, ev); err != nil {
		s.rec.Warn(ctx, &observability.AuditEvent{
			Type:     observability.AuditEventTeardown,
			RootPath: root.Path,
			Error:    err.Error(),
		}, "pre-teardown hook failed: %v", err)
	}

	// The workspace bind mount only exists when the startup script
	// ran with enough privilege; EINVAL and ENOENT mean there was
	// nothing mounted.
	if err := s.unmount(root.MountPoint()); err != nil &&
		!errors.Is(err, unix.EINVAL) && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EPERM) {
		s.rec.Warn(ctx, &observability.AuditEvent{
			Type:     observability.AuditEventUnmountFailed,
			RootPath: root.Path,
			Path:     root.MountPoint(),
			Error:    err.Error(),
		}, "unmount %s: %v", root.MountPoint(), err)
	}

	if err := root.Remove(); err != nil {
		s.rec.Warn(ctx, &observability.AuditEvent{
			Type:     observability.AuditEventTeardown,
			RootPath: root.Path,
			Error:    err.Error(),
		}, "remove root %s: %v", root.Path, err)
	} else {
		s.rec.Event(ctx, &observability.AuditEvent{
			Type:     observability.AuditEventTeardown,
			RootPath: root.Path,
		})
	}

	if s.workers != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, teardownTimeout)
		_ = s.workers.Shutdown(shutdownCtx)
		cancel()
	}
	if s.audit != nil {
		_ = s.audit.Close()
	}
}
