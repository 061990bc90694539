// Package closure computes and materializes the dependency closure of
// a set of requested tools: each tool found on the search path plus
// every shared library it directly links against, copied into the
// sandbox root at a path mirroring its host absolute path.
package closure

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/victoralfred/gojail/observability"
	"github.com/victoralfred/gojail/pool"
	"github.com/victoralfred/gojail/resilience"
	"github.com/victoralfred/gojail/resolver"
)

// Manifest summarizes one closure build.
type Manifest struct {
	// Executables are the resolved absolute paths of requested tools.
	Executables []string

	// Libraries are the shared-library paths discovered for them.
	Libraries []string

	// Copied are the host paths successfully copied into the root.
	Copied []string

	// Skipped are requested names not found on the search path.
	Skipped []string
}

// Builder computes and copies dependency closures. The search path is
// explicit: nothing here reads the process environment.
type Builder struct {
	resolver   resolver.Resolver
	searchPath []string
	pool       pool.Pool
	limiter    resilience.InspectLimiter
	breaker    resilience.CircuitBreaker
	rec        *observability.Recorder
}

// Option configures the builder.
type Option func(*Builder)

// WithPool sets the worker pool used to fan out per-binary resolution.
func WithPool(p pool.Pool) Option {
	return func(b *Builder) { b.pool = p }
}

// WithInspectLimiter sets the inspection spawn-rate limiter.
func WithInspectLimiter(l resilience.InspectLimiter) Option {
	return func(b *Builder) { b.limiter = l }
}

// WithCircuitBreaker sets the inspection-tool circuit breaker.
func WithCircuitBreaker(cb resilience.CircuitBreaker) Option {
	return func(b *Builder) { b.breaker = cb }
}

// WithRecorder sets the session recorder.
func WithRecorder(rec *observability.Recorder) Option {
	return func(b *Builder) { b.rec = rec }
}

// NewBuilder creates a closure builder resolving names against
// searchPath.
func NewBuilder(res resolver.Resolver, searchPath []string, opts ...Option) *Builder {
	b := &Builder{
		resolver:   res,
		searchPath: searchPath,
		limiter:    resilience.NewInspectLimiter(resilience.DefaultInspectLimiterConfig()),
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		rec:        observability.NewRecorder("", observability.WithWarningWriter(os.Stderr)),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.pool == nil {
		b.pool = pool.New(pool.DefaultConfig())
	}
	return b
}

// Build locates every requested name, expands the set with the
// libraries each resolved executable links against, and copies the
// deduplicated result into rootPath. A name that cannot be found and a
// file that cannot be copied are warnings, not errors; only context
// cancellation aborts the build.
func (b *Builder) Build(ctx context.Context, names []string, rootPath string) (*Manifest, error) {
	ctx, end := b.rec.Span(ctx, "closure.Build",
		observability.WithAttribute("requested", len(names)))
	defer end()

	start := time.Now()
	manifest := &Manifest{}

	// Step 1: search-path lookup, dedup-seeding the copy set with the
	// resolved executables. Two names aliasing one binary collapse here.
	set := newPathSet()
	for _, name := range names {
		path, ok := b.lookup(name)
		if !ok {
			manifest.Skipped = append(manifest.Skipped, name)
			b.rec.Count(observability.MetricAppsSkipped, nil)
			b.rec.Warn(ctx, &observability.AuditEvent{
				Type: observability.AuditEventAppSkipped,
				Path: name,
			}, "application %q not found on search path, sandbox will not include it", name)
			continue
		}
		if set.Add(path) {
			manifest.Executables = append(manifest.Executables, path)
		}
	}

	// Step 2: fan per-executable resolution out across the pool. Only
	// direct dependencies are inspected; a library's own link chain is
	// deliberately not expanded.
	libs := newPathSet()
	var wg sync.WaitGroup
	for _, exe := range manifest.Executables {
		exe := exe
		wg.Add(1)
		err := b.pool.Submit(ctx, func() {
			defer wg.Done()
			b.resolveInto(ctx, exe, libs)
		})
		if err != nil {
			wg.Done()
			if ctx.Err() != nil {
				return manifest, ctx.Err()
			}
			// Pool unavailable: resolve inline rather than lose the binary.
			b.resolveInto(ctx, exe, libs)
		}
	}
	wg.Wait()
	if ctx.Err() != nil {
		return manifest, ctx.Err()
	}

	manifest.Libraries = libs.Paths()
	sort.Strings(manifest.Libraries)
	for _, lib := range manifest.Libraries {
		set.Add(lib)
	}

	// Step 3: copy everything, continuing past individual failures.
	for _, src := range set.Paths() {
		dest := TargetPath(rootPath, src)
		if err := copyFile(src, dest); err != nil {
			b.rec.Count(observability.MetricCopyFailures, nil)
			b.rec.Warn(ctx, &observability.AuditEvent{
				Type:  observability.AuditEventCopyFailed,
				Path:  src,
				Error: err.Error(),
			}, "could not copy %s into sandbox: %v", src, err)
			continue
		}
		manifest.Copied = append(manifest.Copied, src)
		b.rec.Count(observability.MetricFilesCopied, nil)
	}

	b.rec.Duration(observability.MetricBuildDuration, time.Since(start).Seconds(), nil)
	return manifest, nil
}

// resolveInto resolves one executable's libraries into the shared set,
// guarded by the spawn-rate limiter and the per-tool circuit breaker.
func (b *Builder) resolveInto(ctx context.Context, exe string, libs *pathSet) {
	tool := b.resolver.Tool()

	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if !b.breaker.Allow(tool) {
		return
	}

	found, err := b.resolver.Resolve(ctx, exe)
	if err != nil {
		if ctx.Err() == nil {
			b.breaker.RecordFailure(tool)
		}
		return
	}
	b.breaker.RecordSuccess(tool)

	for _, lib := range found {
		if libs.Add(lib) {
			b.rec.Count(observability.MetricLibrariesResolved, nil)
		}
	}
}

// lookup finds name on the search path, returning its absolute path.
func (b *Builder) lookup(name string) (string, bool) {
	for _, dir := range b.searchPath {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		return candidate, true
	}
	return "", false
}

// TargetPath maps a host path into the sandbox root: /usr/bin/x under
// root becomes root/usr/bin/x. Pure function of its inputs, so the
// mapping is independent of discovery order.
func TargetPath(rootPath, hostPath string) string {
	return filepath.Join(rootPath, strings.TrimPrefix(filepath.Clean(hostPath), "/"))
}

// copyFile copies src to dest, following symlinks to their real
// target so the sandbox is self-contained, creating intermediate
// directories, and preserving mode and timestamps.
func copyFile(src, dest string) error {
	real, err := filepath.EvalSymlinks(src)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", src, err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return fmt.Errorf("stat %s: %w", real, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", real)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", dest, err)
	}

	in, err := os.Open(real)
	if err != nil {
		return fmt.Errorf("opening %s: %w", real, err)
	}
	defer in.Close() //nolint:errcheck

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck,gosec
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}

	// A pre-existing dest keeps its old mode on O_CREATE, so set it
	// explicitly, then carry the source timestamps over.
	if err := os.Chmod(dest, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod %s: %w", dest, err)
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("chtimes %s: %w", dest, err)
	}
	return nil
}
