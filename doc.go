// Package gojail assembles disposable chroot sandboxes and launches a
// shell inside them.
//
// A sandbox is a throwaway root directory populated with a requested
// set of tools and the shared libraries they link against, discovered
// by inspecting each binary with the platform linker tool (ldd on
// Linux, otool on macOS). Host paths are mirrored inside the root so
// the dynamic loader finds everything where it expects it. The shell
// is started under the strongest isolation the host permits, falling
// back from namespace-plus-chroot to plain chroot to a direct shell
// when a wrapper cannot be spawned.
//
// # Quick Start
//
//	settings := config.Settings{
//	    Applications: []string{"python3", "curl"},
//	}
//	code, err := gojail.Run(ctx, settings, "/home/me/project")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Exit(code)
//
// # With Custom Wiring
//
//	sess, err := gojail.NewBuilder().
//	    WithSettings(settings).
//	    WithBaseDir("/var/tmp").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := sess.Run(ctx, workdir)
//
// # Guarantees
//
//   - The root directory is removed on every exit path, including
//     interrupts and launch failures.
//   - A tool missing from the search path degrades the sandbox and is
//     reported; it never aborts assembly.
//   - Network settings are advisory metadata only; nothing is
//     enforced.
//
// # Architecture
//
// The module is organized into focused packages:
//
//   - gojail (this package): Main entry point and convenience functions
//   - session: Session lifecycle, concurrency, and teardown
//   - resolver: Shared-library discovery via ldd/otool
//   - closure: Dependency closure computation and file copying
//   - rootfs: Root scaffold, /etc files, and shell profile placement
//   - launcher: Isolation strategy ladder and startup script
//   - config: YAML settings, validation, and profile rendering
//   - pool: Bounded worker pool for parallel inspections
//   - resilience: Inspection rate limiting and circuit breaker
//   - observability: OpenTelemetry metrics and audit logging
//   - hooks: Extension points for the session lifecycle
//
// # Thread Safety
//
// A Session is single-use; build one per sandbox run. The supporting
// components (pool, resilience, observability) are safe for concurrent
// use by multiple goroutines.
//
// # File I/O
//
// Writes inside a sandbox root go through
// github.com/victoralfred/gowritter/safepath so no generated file can
// escape the root.
package gojail
